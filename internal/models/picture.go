package models

// Picture существует только вместе с парой файлов (original/optimized)
// в хранилище; строка создаётся в одной транзакции с публикацией.
type Picture struct {
	ID     string `json:"id"`
	PostID int64  `json:"-"`
	Format string `json:"format"`
	Size   int64  `json:"size"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}
