package services

import (
	"errors"
	"fmt"

	"github.com/slayergates/esports-arena/models"
	"github.com/slayergates/esports-arena/repositories"
	"github.com/slayergates/esports-arena/storage"
)

// translateTransient переводит транзиентные сбои хранилища в сервисный
// сентинел, остальные ошибки возвращает без изменений.
func translateTransient(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, repositories.ErrTransient) {
		return fmt.Errorf("%w: %v", ErrTransient, err)
	}
	return err
}

func populateUserAvatarURL(user *models.User, uploader storage.FileUploader) {
	if user == nil {
		return
	}
	user.PasswordHash = ""
	if user.AvatarKey != nil && *user.AvatarKey != "" && uploader != nil {
		url := uploader.GetPublicURL(*user.AvatarKey)
		if url != "" {
			user.AvatarURL = &url
		}
	}
}

func populateTeamLogoURL(team *models.Team, uploader storage.FileUploader) {
	if team == nil {
		return
	}
	if team.LogoKey != nil && *team.LogoKey != "" && uploader != nil {
		url := uploader.GetPublicURL(*team.LogoKey)
		if url != "" {
			team.LogoURL = &url
		}
	}
	populateUserAvatarURL(team.Captain, uploader)
	for i := range team.Members {
		populateUserAvatarURL(team.Members[i].User, uploader)
	}
}
