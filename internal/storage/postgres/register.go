package postgres

import "sheetetl/internal/storage"

func init() {
	// registers the backend factory
	storage.Register(kind, New)
}
