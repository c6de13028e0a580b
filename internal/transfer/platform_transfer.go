package transfer

import "github.com/maheshrc27/creatorpulse/internal/models"

type ConnectAccountRequest struct {
	Platform   string `json:"platform"`
	Identifier string `json:"identifier"`
}

type RemoveAccountRequest struct {
	AccountID int64 `json:"account_id"`
}

type SyncResponse struct {
	Account *models.SocialAccount `json:"account"`
	Cached  bool                  `json:"cached"`
}
