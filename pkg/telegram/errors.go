package telegram

import (
	"errors"
	"strings"
)

// The Bot API reports failures as free-form descriptions; these sentinels are
// the three kinds the draft pipeline cares about. Callers check them with
// errors.Is.
var (
	ErrNotFound       = errors.New("telegram: message not found")
	ErrEditNotAllowed = errors.New("telegram: message cannot be edited")
	ErrNotModified    = errors.New("telegram: message is not modified")
)

// ClassifyError wraps a raw Bot API error with the matching sentinel so the
// caller can branch on the failure kind without parsing description text.
func ClassifyError(err error) error {
	if err == nil {
		return nil
	}
	desc := strings.ToLower(err.Error())
	switch {
	case strings.Contains(desc, "message is not modified"):
		return errors.Join(ErrNotModified, err)
	case strings.Contains(desc, "message to delete not found"),
		strings.Contains(desc, "message to edit not found"),
		strings.Contains(desc, "message not found"),
		strings.Contains(desc, "message_id_invalid"):
		return errors.Join(ErrNotFound, err)
	case strings.Contains(desc, "message can't be edited"),
		strings.Contains(desc, "message can't be deleted"),
		strings.Contains(desc, "message_cant_be_edited"):
		return errors.Join(ErrEditNotAllowed, err)
	}
	return err
}

// IsIgnorable reports whether the error is safe to swallow during best-effort
// cleanup: the message is already gone or can no longer be touched.
func IsIgnorable(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrEditNotAllowed)
}

// IsNotModified reports whether the error is the success-equivalent no-op.
func IsNotModified(err error) bool {
	return errors.Is(err, ErrNotModified)
}
