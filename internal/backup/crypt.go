package backup

import (
	"errors"
	"fmt"
	"io"

	"filippo.io/age"

	"eventmeet/internal/model"
)

// encrypt returns a writer that encrypts everything written to it into w using a
// passphrase-derived (scrypt) key. workFactor 0 keeps age's default. The writer
// must be closed to flush the final chunk.
func encrypt(w io.Writer, passphrase string, workFactor int) (io.WriteCloser, error) {
	recipient, err := age.NewScryptRecipient(passphrase)
	if err != nil {
		return nil, fmt.Errorf("creating scrypt recipient: %w", err)
	}
	if workFactor > 0 {
		recipient.SetWorkFactor(workFactor)
	}

	encWriter, err := age.Encrypt(w, recipient)
	if err != nil {
		return nil, fmt.Errorf("creating encrypted writer: %w", err)
	}
	return encWriter, nil
}

// decrypt returns a reader of the plaintext of r. A wrong passphrase is a
// validation error.
func decrypt(r io.Reader, passphrase string) (io.Reader, error) {
	identity, err := age.NewScryptIdentity(passphrase)
	if err != nil {
		return nil, fmt.Errorf("creating scrypt identity: %w", err)
	}

	decReader, err := age.Decrypt(r, identity)
	if err != nil {
		var noMatch *age.NoIdentityMatchError
		if errors.As(err, &noMatch) {
			return nil, model.NewValidationError("passphrase", "does not unlock this snapshot")
		}
		return nil, fmt.Errorf("decrypting snapshot: %w", err)
	}
	return decReader, nil
}
