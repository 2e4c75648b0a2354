package biz

import (
	"github.com/DevRickLin/feishu-daycare-bot/internal/biz/domain"
	"github.com/DevRickLin/feishu-daycare-bot/internal/biz/repo"
	"github.com/DevRickLin/feishu-daycare-bot/internal/biz/usecase"
)

// Usecases contains all usecases
type Usecases struct {
	Photo    *usecase.PhotoUsecase // nil when photos are disabled
	Presence *usecase.PresenceUsecase
}

// NewUsecases wires the usecase layer. A nil messageRepo disables photos,
// which need an upload target.
func NewUsecases(
	directory *domain.Directory,
	portalRepo repo.PortalRepo,
	messageRepo repo.MessageRepo,
	photoCfg usecase.PhotoConfig,
	absentNote string,
) *Usecases {
	var photoUC *usecase.PhotoUsecase
	if messageRepo != nil {
		photoUC = usecase.NewPhotoUsecase(portalRepo, messageRepo, photoCfg)
	}
	return &Usecases{
		Photo:    photoUC,
		Presence: usecase.NewPresenceUsecase(directory, portalRepo, photoUC, absentNote),
	}
}
