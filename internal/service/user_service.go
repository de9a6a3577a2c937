package service

import (
	"context"
	"io"
	"time"

	"nextblog/internal/models"
	"nextblog/internal/repository"
	"nextblog/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

type UserService struct {
	userRepo repository.UserRepository
	assets   *AssetService
}

// UpdateProfileInput carries the changed fields of a profile edit. Zero
// values mean "leave unchanged".
type UpdateProfileInput struct {
	UserID      uint
	Username    string
	Password    string
	FirstName   string
	LastName    string
	DateOfBirth *time.Time
	// ImageFile, when set, replaces the profile image. The previous remote
	// asset is deleted best-effort after the new one is persisted.
	ImageFile io.Reader
}

func NewUserService(userRepo repository.UserRepository, assets *AssetService) *UserService {
	return &UserService{
		userRepo: userRepo,
		assets:   assets,
	}
}

func (s *UserService) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

func (s *UserService) GetUserStats(ctx context.Context, id uint) (*models.UserStats, error) {
	return s.userRepo.Stats(ctx, id)
}

func (s *UserService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	if in.Username != "" {
		if err := validation.ValidateUsername(in.Username); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		user.Username = in.Username
	}
	if in.FirstName != "" {
		if err := validation.ValidateName(in.FirstName); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		user.FirstName = in.FirstName
	}
	if in.LastName != "" {
		if err := validation.ValidateName(in.LastName); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		user.LastName = in.LastName
	}
	if in.DateOfBirth != nil {
		user.DateOfBirth = in.DateOfBirth
	}
	if in.Password != "" {
		if err := validation.ValidatePassword(in.Password); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, models.NewInternalError(err)
		}
		user.Password = string(hashed)
	}

	oldImage := user.ProfileImage
	replacedImage := false
	if in.ImageFile != nil {
		asset, err := s.assets.Upload(ctx, in.ImageFile, "profiles")
		if err != nil {
			return nil, err
		}
		user.ProfileImage = asset
		replacedImage = true
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		if replacedImage {
			s.assets.DeleteAll(ctx, []models.ImageAsset{user.ProfileImage})
		}
		return nil, err
	}

	if replacedImage && !oldImage.IsZero() {
		s.assets.DeleteAll(ctx, []models.ImageAsset{oldImage})
	}
	return user, nil
}
