package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/taskforge/djboot/internal/model"
)

// seedFile is the raw structure of the optional YAML admin seed file:
//
//	admins:
//	  - username: ops
//	    email: ops@example.com
//	    password: "..."
//
// Seeded accounts are provisioned after the primary account with the
// same idempotency guarantees and the same non-fatal failure policy.
type seedFile struct {
	Admins []seedAdmin `yaml:"admins"`
}

type seedAdmin struct {
	Username string `yaml:"username"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
}

// LoadSeed reads the admin seed file at path and returns the accounts
// it declares.
//
// A missing file returns (nil, nil); the seed is optional. Entries
// without a username or password are dropped — a seeded account with an
// empty credential is exactly the silent misprovisioning the password
// gate exists to prevent.
func LoadSeed(path string) ([]Admin, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, model.WrapCLIError(model.ExitFailure,
			fmt.Sprintf("failed to read admin seed %q", path), err)
	}

	var sf seedFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return nil, model.WrapCLIError(model.ExitFailure,
			fmt.Sprintf("failed to parse admin seed %q", path), err)
	}

	admins := make([]Admin, 0, len(sf.Admins))
	for _, a := range sf.Admins {
		if a.Username == "" || a.Password == "" {
			continue
		}
		email := a.Email
		if email == "" {
			email = a.Username + "@example.com"
		}
		admins = append(admins, Admin{
			Username: a.Username,
			Email:    email,
			Password: a.Password,
		})
	}
	return admins, nil
}
