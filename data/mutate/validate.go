package mutate

import (
	"strings"
	"unicode/utf8"

	"github.com/seventv/common/errors"
	"github.com/socialsync/api/data/model"
)

const (
	MinUsernameLength = 3
	MinPasswordLength = 6
	MaxCaptionLength  = 2200
	MaxCommentLength  = 500
	MaxMessageLength  = 1000
)

type CreateUserOptions struct {
	Username string
	Email    string
	Password string
	FullName string
	Bio      string
}

// Normalize trims the input and lowercases the email, then validates it
func (o *CreateUserOptions) Normalize() error {
	o.Username = strings.TrimSpace(o.Username)
	o.Email = strings.ToLower(strings.TrimSpace(o.Email))
	o.FullName = strings.TrimSpace(o.FullName)

	switch {
	case o.Username == "" || o.Email == "" || o.Password == "":
		return errors.ErrMissingRequiredField().SetDetail("username, email and password are required")
	case utf8.RuneCountInString(o.Username) < MinUsernameLength:
		return errors.ErrInvalidRequest().SetDetail("Username must be at least %d characters", MinUsernameLength)
	case strings.Contains(o.Username, "@"):
		return errors.ErrInvalidRequest().SetDetail("Username cannot contain @")
	case !strings.Contains(o.Email, "@"):
		return errors.ErrInvalidRequest().SetDetail("Invalid email")
	case len(o.Password) < MinPasswordLength:
		return errors.ErrInvalidRequest().SetDetail("Password must be at least %d characters", MinPasswordLength)
	}

	return nil
}

type UpdateProfileOptions struct {
	UserID   string
	Username string
	Email    string
	FullName string
	Bio      string
}

// Normalize applies the same username and email rules as registration
func (o *UpdateProfileOptions) Normalize() error {
	o.Username = strings.TrimSpace(o.Username)
	o.Email = strings.ToLower(strings.TrimSpace(o.Email))
	o.FullName = strings.TrimSpace(o.FullName)
	o.Bio = strings.TrimSpace(o.Bio)

	switch {
	case o.UserID == "":
		return errors.ErrMissingRequiredField().SetDetail("userId is required")
	case o.Username == "" || o.Email == "":
		return errors.ErrMissingRequiredField().SetDetail("username and email are required")
	case utf8.RuneCountInString(o.Username) < MinUsernameLength:
		return errors.ErrInvalidRequest().SetDetail("Username must be at least %d characters", MinUsernameLength)
	case strings.Contains(o.Username, "@"):
		return errors.ErrInvalidRequest().SetDetail("Username cannot contain @")
	case !strings.Contains(o.Email, "@"):
		return errors.ErrInvalidRequest().SetDetail("Invalid email")
	}

	return nil
}

type CreatePostOptions struct {
	Caption       string
	MediaURL      *string
	MediaType     model.MediaType
	OwnerID       string
	OwnerUsername string
}

func (o *CreatePostOptions) Normalize() error {
	o.Caption = strings.TrimSpace(o.Caption)

	if o.MediaType == "" {
		o.MediaType = model.MediaTypeText
	}

	if o.MediaURL != nil && strings.TrimSpace(*o.MediaURL) == "" {
		o.MediaURL = nil
	}

	switch {
	case o.Caption == "":
		return errors.ErrMissingRequiredField().SetDetail("Caption is required")
	case utf8.RuneCountInString(o.Caption) > MaxCaptionLength:
		return errors.ErrInvalidRequest().SetDetail("Caption cannot exceed %d characters", MaxCaptionLength)
	case o.OwnerID == "":
		return errors.ErrMissingRequiredField().SetDetail("ownerId is required")
	case !o.MediaType.Valid():
		return errors.ErrInvalidRequest().SetDetail("Invalid media type")
	}

	return nil
}

func validateComment(text string) (string, error) {
	text = strings.TrimSpace(text)

	if text == "" {
		return "", errors.ErrMissingRequiredField().SetDetail("Comment text is required")
	}

	if utf8.RuneCountInString(text) > MaxCommentLength {
		return "", errors.ErrInvalidRequest().SetDetail("Comment cannot exceed %d characters", MaxCommentLength)
	}

	return text, nil
}

func validateMessage(senderID, receiverID, text string) (string, error) {
	text = strings.TrimSpace(text)

	switch {
	case senderID == "" || receiverID == "":
		return "", errors.ErrMissingRequiredField().SetDetail("senderId and receiverId are required")
	case text == "":
		return "", errors.ErrMissingRequiredField().SetDetail("Message text is required")
	case utf8.RuneCountInString(text) > MaxMessageLength:
		return "", errors.ErrInvalidRequest().SetDetail("Message cannot exceed %d characters", MaxMessageLength)
	}

	return text, nil
}

// truncate shortens s to n runes, marking the cut with an ellipsis
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}

	return string([]rune(s)[:n]) + "..."
}
