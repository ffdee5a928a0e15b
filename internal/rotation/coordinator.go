package rotation

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/illarion/passvault/internal/policy"
	"github.com/illarion/passvault/internal/vault"
	"github.com/illarion/passvault/internal/verifier"
)

var (
	ErrWeakPassphrase  = policy.ErrWeakPassphrase
	ErrWrongPassphrase = errors.New("wrong passphrase")
	ErrLoadVault       = errors.New("failed to load vault")
	ErrReset           = errors.New("failed to reset vault passphrase")
	ErrSaveVault       = errors.New("failed to save vault under new passphrase")
)

// State of a rotation attempt
type State int

const (
	Idle State = iota
	Verifying
	Rewriting
	Committed
	RolledBack
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Verifying:
		return "verifying"
	case Rewriting:
		return "rewriting"
	case Committed:
		return "committed"
	case RolledBack:
		return "rolled-back"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Step names recorded in Result.Steps
const (
	StepPolicy  = "policy"
	StepVerify  = "verify"
	StepLoad    = "load"
	StepBackup  = "backup"
	StepDelete  = "delete"
	StepSet     = "set"
	StepSave    = "save"
	StepUndoSet = "undo-set"
	StepRestore = "restore"
)

// Request describes one rotation. Old is nil only when no passphrase has ever been set.
type Request struct {
	Old *string
	New string
}

// Result traces how far a rotation attempt got
type Result struct {
	State State
	Steps []string
}

func (r *Result) step(name string) {
	r.Steps = append(r.Steps, name)
}

// Coordinator changes the vault passphrase: it swaps the verifier and
// re-encrypts the record set under the new passphrase. The verifier blobs
// and the vault blob share no atomic commit, so a failed step is undone with
// compensating actions.
type Coordinator struct {
	verifier *verifier.Verifier
	store    *vault.Store
	policy   policy.Policy
	log      logrus.FieldLogger
}

// New creates a coordinator. A nil policy accepts every passphrase.
func New(v *verifier.Verifier, store *vault.Store, p policy.Policy, log logrus.FieldLogger) *Coordinator {
	if p == nil {
		p = policy.Func(func(string) bool { return true })
	}
	if log == nil {
		l := logrus.New()
		l.SetLevel(logrus.PanicLevel)
		log = l
	}
	return &Coordinator{
		verifier: v,
		store:    store,
		policy:   p,
		log:      log.WithField("scope", v.Scope()),
	}
}

// Rotate runs the rotation. On success the verifier and the persisted vault
// both match req.New; on failure both are as they were before the call,
// except that a damaged verifier pair is left deleted.
// ctx is only checked before key derivation starts.
func (c *Coordinator) Rotate(ctx context.Context, req Request) (*Result, error) {
	res := &Result{State: Idle}

	res.step(StepPolicy)
	if err := policy.Check(c.policy, req.New); err != nil {
		return res, err
	}
	if err := ctx.Err(); err != nil {
		return res, err
	}

	res.State = Verifying
	if err := c.verify(res, req); err != nil {
		res.State = RolledBack
		c.log.WithFields(logrus.Fields{"state": res.State, "steps": res.Steps}).Warn("rotation rejected")
		return res, err
	}

	res.State = Rewriting
	if err := c.rewrite(res, req.New); err != nil {
		res.State = RolledBack
		c.log.WithFields(logrus.Fields{"state": res.State, "steps": res.Steps}).WithError(err).Error("rotation rolled back")
		return res, err
	}

	res.State = Committed
	c.log.WithFields(logrus.Fields{
		"state":   res.State,
		"records": len(c.store.Records()),
	}).Info("vault passphrase rotated")
	return res, nil
}

// verify proves knowledge of the current passphrase and loads the records
// under it, so the rewrite re-encrypts the real record set.
func (c *Coordinator) verify(res *Result, req Request) error {
	exists, err := c.store.Exists()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrLoadVault, err)
	}

	if c.verifier.Has() {
		res.step(StepVerify)
		if req.Old == nil || !c.verifier.Verify(*req.Old) {
			return ErrWrongPassphrase
		}
		res.step(StepLoad)
		if err := c.store.Load(*req.Old); err != nil {
			return fmt.Errorf("%w: %v", ErrLoadVault, err)
		}
		return nil
	}

	res.step(StepLoad)
	if !exists {
		// First passphrase: nothing is persisted yet
		return c.store.Load(req.New)
	}

	// A sealed vault without a verifier: only its passphrase may rotate it
	if req.Old == nil {
		return ErrWrongPassphrase
	}
	if err := c.store.Load(*req.Old); err != nil {
		if errors.Is(err, vault.ErrWrongPassphraseOrCorrupt) {
			return ErrWrongPassphrase
		}
		return fmt.Errorf("%w: %v", ErrLoadVault, err)
	}
	return nil
}

func (c *Coordinator) rewrite(res *Result, newPassphrase string) error {
	res.step(StepBackup)
	backup, err := c.verifier.Backup()
	if errors.Is(err, verifier.ErrInconsistent) {
		// verify opened the vault itself; a damaged pair is replaced, not restored
		c.log.WithError(err).Warn("replacing damaged verifier")
		backup, err = nil, nil
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrReset, err)
	}
	defer backup.Clear()

	res.step(StepDelete)
	if err := c.verifier.Delete(); err != nil {
		// A partial delete may have removed the hash
		return c.compensate(res, backup, false, fmt.Errorf("%w: %v", ErrReset, err))
	}

	res.step(StepSet)
	if err := c.verifier.Set(newPassphrase); err != nil {
		return c.compensate(res, backup, false, fmt.Errorf("%w: %v", ErrReset, err))
	}

	res.step(StepSave)
	if err := c.store.Save(newPassphrase); err != nil {
		return c.compensate(res, backup, true, fmt.Errorf("%w: %v", ErrSaveVault, err))
	}
	return nil
}

// compensate undoes the verifier side of a failed rewrite and returns cause,
// annotated with any rollback failure.
func (c *Coordinator) compensate(res *Result, backup *verifier.Backup, undoSet bool, cause error) error {
	var rollbackErrs []error

	if undoSet {
		res.step(StepUndoSet)
		if err := c.verifier.Delete(); err != nil {
			rollbackErrs = append(rollbackErrs, err)
		}
	}

	if backup != nil {
		res.step(StepRestore)
		if err := c.verifier.Restore(backup); err != nil {
			rollbackErrs = append(rollbackErrs, err)
		}
	}

	if err := errors.Join(rollbackErrs...); err != nil {
		c.log.WithError(err).Error("rotation rollback incomplete")
		return fmt.Errorf("%w (rollback failed: %v)", cause, err)
	}
	return cause
}
