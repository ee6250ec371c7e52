package api

import (
	"context"
	"fmt"

	authRepo "kanban-mail-backend/internal/auth/repository"
	kanbanUsecase "kanban-mail-backend/internal/kanban/usecase"
	"kanban-mail-backend/pkg/gmail"

	"golang.org/x/oauth2"
)

// gmailMailboxProvider adapts the Gmail service to kanbanUsecase.MailboxProvider
type gmailMailboxProvider struct {
	userRepo     authRepo.UserRepository
	gmailService *gmail.Service
}

func NewMailboxProvider(userRepo authRepo.UserRepository, gmailService *gmail.Service) kanbanUsecase.MailboxProvider {
	return &gmailMailboxProvider{userRepo: userRepo, gmailService: gmailService}
}

func (p *gmailMailboxProvider) ForUser(ctx context.Context, userID string) (kanbanUsecase.Mailbox, error) {
	user, err := p.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load user %s: %w", userID, err)
	}
	if user == nil {
		return nil, fmt.Errorf("user %s not found", userID)
	}

	onTokenRefresh := func(token *oauth2.Token) error {
		return p.userRepo.UpdateGmailTokens(context.Background(), userID, token.AccessToken, token.RefreshToken)
	}

	// refreshes may outlive a canceled request
	client, err := p.gmailService.NewClient(context.WithoutCancel(ctx), user.GmailRefreshToken, onTokenRefresh)
	if err != nil {
		return nil, err
	}
	return client, nil
}
