package scanner

import (
	"context"

	"github.com/MoeTools/nessus/pkg/dialogue"
	"github.com/MoeTools/nessus/pkg/errors"
)

// adduserScript is the state machine for the interactive adduser flow.
// States correspond to the prompts the tool is expected to print next;
// the two tolerated shortcuts (single-user license, user already exists)
// terminate the dialogue as success.
func (s *Scanner) adduserScript() (*dialogue.Script, error) {
	return dialogue.NewScript("login", []dialogue.State{
		{Name: "login", Transitions: []dialogue.Transition{
			{Expect: `Login:`, Respond: s.cfg.Username, Next: "password"},
			{Expect: `Your license does not allow you to create more than one user`,
				Silent: true,
				Note:   "License allows a single user only; keeping the existing account"},
		}},
		{Name: "password", Transitions: []dialogue.Transition{
			{Expect: `Login password:`, Respond: s.cfg.Password, Next: "confirm",
				Note: "Setting password"},
			{Expect: `already exists`, Silent: true,
				Note: "User already exists on the scanner; skipping"},
		}},
		{Name: "confirm", Transitions: []dialogue.Transition{
			{Expect: `Login password .*`, Respond: s.cfg.Password, Next: "admin",
				Note: "Confirming password"},
		}},
		{Name: "admin", Transitions: []dialogue.Transition{
			{Expect: `Do you want this user to be .*`, Respond: "y", Next: "rules",
				Note: "Granting administrator privileges"},
		}},
		{Name: "rules", Transitions: []dialogue.Transition{
			{Expect: `the user can have an empty rules set`, Respond: "", Next: "confirmadd",
				Note: "Leaving the rules set empty"},
		}},
		{Name: "confirmadd", Transitions: []dialogue.Transition{
			{Expect: `Is that ok\?`, Respond: "y", Next: "added",
				Note: "Confirming user addition"},
		}},
		{Name: "added", Transitions: []dialogue.Transition{
			{Expect: `User added`, Silent: true},
		}},
	})
}

// AddUser provisions the administrator account through the interactive
// adduser flow. With no credentials configured the step is a no-op;
// mismatched credential presence is a configuration error.
func (s *Scanner) AddUser(ctx context.Context) error {
	if s.cfg.Username == "" && s.cfg.Password == "" {
		s.logger.Info().Msg("Username and password not provided; skipping user creation")
		return nil
	}
	if !s.cfg.HasCredentials() {
		return errors.New(errors.ErrConfigValid,
			"username and password must be provided together")
	}
	if err := ctx.Err(); err != nil {
		return errors.Wrap(err, errors.ErrDialogueSpawn, "add user canceled")
	}
	if s.dryRun {
		s.logger.Info().Str("username", s.cfg.Username).
			Msg("[DRY RUN] Would add user through interactive adduser")
		return nil
	}

	s.logger.Info().Str("username", s.cfg.Username).Msg("Adding user to scanner")

	script, err := s.adduserScript()
	if err != nil {
		return err
	}

	t, err := s.spawn(s.cfg.Paths.CLI, "adduser")
	if err != nil {
		return errors.Wrapf(err, errors.GetErrorCode(err), "failed to start adduser")
	}
	defer func() { _ = t.Close() }()

	if err := script.Run(t, s.logger); err != nil {
		return err
	}

	s.logger.Info().Str("username", s.cfg.Username).Msg("User provisioning complete")
	return nil
}
