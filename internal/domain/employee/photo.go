package employee

import (
	"context"

	"ems/internal/domain/identity"
)

// UploadPhoto replaces the employee's profile photo.
func (s *Service) UploadPhoto(ctx context.Context, caller identity.Identity, employeeID int64, up Upload) (ProfilePhoto, error) {
	if err := requireAdmin(caller); err != nil {
		return ProfilePhoto{}, err
	}
	if err := ValidatePhoto(up); err != nil {
		return ProfilePhoto{}, err
	}
	var out ProfilePhoto
	err := s.write(ctx, func(ctx context.Context) error {
		if _, err := s.stores.Employees.Get(ctx, employeeID); err != nil {
			return err
		}
		var err error
		out, err = s.stores.Photos.ReplacePhoto(ctx, employeeID, ProfilePhoto{
			FileName: up.FileName,
			FileType: baseMediaType(up.FileType),
			Data:     up.Data,
		})
		return err
	})
	if err != nil {
		return ProfilePhoto{}, err
	}
	s.record("photo.uploaded")
	return out, nil
}

// GetPhoto returns nil when the employee has no photo.
func (s *Service) GetPhoto(ctx context.Context, caller identity.Identity, employeeID int64) (*ProfilePhoto, error) {
	var out *ProfilePhoto
	err := s.read(ctx, func(ctx context.Context) error {
		if _, err := s.accessible(ctx, caller, employeeID); err != nil {
			return err
		}
		var err error
		out, err = s.stores.Photos.GetPhoto(ctx, employeeID)
		return err
	})
	return out, err
}

// DeletePhoto reports whether a photo was removed.
func (s *Service) DeletePhoto(ctx context.Context, caller identity.Identity, employeeID int64) (bool, error) {
	if err := requireAdmin(caller); err != nil {
		return false, err
	}
	var removed bool
	err := s.write(ctx, func(ctx context.Context) error {
		if _, err := s.stores.Employees.Get(ctx, employeeID); err != nil {
			return err
		}
		var err error
		removed, err = s.stores.Photos.DeletePhoto(ctx, employeeID)
		return err
	})
	if err == nil && removed {
		s.record("photo.deleted")
	}
	return removed, err
}
