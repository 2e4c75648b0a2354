package data

import (
	"fmt"

	"github.com/DevRickLin/feishu-daycare-bot/internal/biz/repo"
	"github.com/DevRickLin/feishu-daycare-bot/internal/conf"
	"github.com/DevRickLin/feishu-daycare-bot/internal/infra/educabiz"
	"github.com/DevRickLin/feishu-daycare-bot/internal/infra/feishu"
)

// Repositories contains all repositories
type Repositories struct {
	Message repo.MessageRepo
	Portal  repo.PortalRepo
}

// NewRepositories creates all repositories. One portal client is opened
// per declared account; sessions are established lazily.
func NewRepositories(feishuClient *feishu.Client, daycare conf.DaycareConfig) (*Repositories, error) {
	clients := make(map[string]*educabiz.Client, len(daycare.Accounts))
	for name, creds := range daycare.Accounts {
		client, err := educabiz.New(daycare.BaseURL, creds.Username, creds.Password)
		if err != nil {
			return nil, fmt.Errorf("account %s: %w", name, err)
		}
		clients[name] = client
	}

	return &Repositories{
		Message: NewFeishuRepo(feishuClient),
		Portal:  NewPortalRepo(clients),
	}, nil
}
