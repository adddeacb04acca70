package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/tutorbridge-backend/internal/data/store"
	"github.com/yungbote/tutorbridge-backend/internal/platform/logger"
)

func wireStore(db *gorm.DB, log *logger.Logger, cfg Config) (store.Repos, *store.Store) {
	log.Info("Wiring repos...")
	r := store.NewRepos(db, log)
	return r, store.New(r, cfg.Breaker, log)
}
