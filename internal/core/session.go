package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/illarion/passvault/internal/blob"
	"github.com/illarion/passvault/internal/config"
	"github.com/illarion/passvault/internal/crypto"
	"github.com/illarion/passvault/internal/git"
	"github.com/illarion/passvault/internal/keyring"
	"github.com/illarion/passvault/internal/policy"
	"github.com/illarion/passvault/internal/rotation"
	"github.com/illarion/passvault/internal/storage"
	"github.com/illarion/passvault/internal/vault"
	"github.com/illarion/passvault/internal/verifier"
)

// vaultIDBlob holds the vault ID on backends without a config bucket
const vaultIDBlob = "vault_id"

var (
	ErrNotInitialized     = errors.New("passvault not initialized")
	ErrAlreadyExists      = errors.New("passvault already initialized")
	ErrWrongPassphrase    = errors.New("wrong passphrase")
	ErrPasswordRequired   = errors.New("passphrase required")
	ErrLocked             = errors.New("vault is locked")
	ErrNoMasterPassword   = errors.New("no master passphrase set")
	ErrCompactUnsupported = errors.New("compaction requires the bolt backend")
)

// Option configures a Session
type Option func(*Session)

// WithLogger replaces the logger built from config
func WithLogger(log logrus.FieldLogger) Option {
	return func(s *Session) {
		s.log = log
	}
}

// WithPolicy replaces the default passphrase policy
func WithPolicy(p policy.Policy) Option {
	return func(s *Session) {
		s.policy = p
	}
}

// WithSecrets stores verifier blobs in store instead of the configured one
func WithSecrets(store blob.Store) Option {
	return func(s *Session) {
		s.secretsOverride = store
	}
}

// Session owns one vault: its backend, verifiers, record store and
// rotation coordinator. Calls are serialized.
type Session struct {
	mu     sync.Mutex
	cfg    *config.Config
	log    logrus.FieldLogger
	policy policy.Policy
	cache  *keyring.Store

	secretsOverride blob.Store

	db      *storage.Storage // bolt backend only
	closer  io.Closer
	sink    blob.Store
	local   blob.Store
	vaultID string

	vaultVerifier  *verifier.Verifier
	masterVerifier *verifier.Verifier
	records        *vault.Store
	rotator        *rotation.Coordinator

	passphrase string
	unlocked   bool
}

// New creates a session for the vault described by cfg. Nothing is opened
// until the first operation.
func New(cfg *config.Config, opts ...Option) *Session {
	if cfg == nil {
		cfg = config.Default()
	}
	s := &Session{
		cfg:    cfg,
		policy: policy.Default(),
		cache:  keyring.NewStore(cfg.KeyringService),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = cfg.Logger()
	}
	return s
}

// Close locks the session and releases the backend
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lock()
	var err error
	if s.closer != nil {
		err = s.closer.Close()
	}
	s.db, s.closer, s.sink, s.local = nil, nil, nil, nil
	s.records, s.rotator = nil, nil
	return err
}

// open attaches the configured backend. With create unset a missing vault
// is ErrNotInitialized.
func (s *Session) open(create bool) error {
	if s.sink != nil {
		return nil
	}
	if !create {
		if _, err := os.Stat(s.cfg.Path); err != nil {
			return ErrNotInitialized
		}
	}

	switch s.cfg.Backend {
	case config.BackendBolt:
		if err := s.openBolt(create); err != nil {
			return err
		}
	case config.BackendSQLite:
		store, err := storage.OpenSQLite(s.cfg.Path)
		if err != nil {
			return err
		}
		if err := s.attach(store, store, create); err != nil {
			return err
		}
	case config.BackendDir:
		store, err := blob.NewDirStore(s.cfg.Path)
		if err != nil {
			return err
		}
		if err := s.attach(store, store, create); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown backend %q", s.cfg.Backend)
	}

	secrets := s.secretsOverride
	if secrets == nil {
		if s.cfg.Secrets == config.SecretsKeyring {
			secrets = keyring.NewStore(s.cfg.KeyringService + "/" + s.vaultID)
		} else {
			secrets = s.local
		}
	}
	s.vaultVerifier = verifier.New(secrets, verifier.ScopeVault)
	s.masterVerifier = verifier.New(secrets, verifier.ScopeMaster)
	s.records = vault.NewStore(s.sink, vault.DefaultBlobName)
	s.rotator = rotation.New(s.vaultVerifier, s.records, s.policy, s.log)

	s.log.WithFields(logrus.Fields{
		"backend":  s.cfg.Backend,
		"secrets":  s.cfg.Secrets,
		"vault_id": s.vaultID,
	}).Debug("vault opened")
	return nil
}

func (s *Session) openBolt(create bool) error {
	db, err := storage.Open(s.cfg.Path)
	if err != nil {
		return err
	}

	if create {
		if err := db.Initialize(); err != nil {
			db.Close()
			return fmt.Errorf("failed to initialize database: %w", err)
		}
	} else if ok, err := db.IsInitialized(); err != nil || !ok {
		db.Close()
		return ErrNotInitialized
	}

	vaultID, err := db.GetVaultID()
	if err != nil {
		db.Close()
		return err
	}

	s.db = db
	s.closer = db
	s.sink = db.Bucket(storage.VaultBucket)
	s.local = db.Bucket(storage.SecretsBucket)
	s.vaultID = vaultID
	return nil
}

func (s *Session) attach(store blob.Store, closer io.Closer, create bool) error {
	fail := func(err error) error {
		closer.Close()
		return err
	}

	id, err := store.Load(vaultIDBlob)
	switch {
	case errors.Is(err, blob.ErrNotFound) && create:
		id = []byte(uuid.NewString())
		if err := store.Save(vaultIDBlob, id); err != nil {
			return fail(fmt.Errorf("failed to store vault ID: %w", err))
		}
	case errors.Is(err, blob.ErrNotFound):
		return fail(ErrNotInitialized)
	case err != nil:
		return fail(err)
	}

	s.closer = closer
	s.sink = store
	s.local = store
	s.vaultID = string(id)
	return nil
}

func (s *Session) lock() {
	if s.records != nil {
		s.records.Reset()
	}
	s.passphrase = ""
	s.unlocked = false
}

func (s *Session) setUnlocked(passphrase string) {
	s.passphrase = passphrase
	s.unlocked = true
}

// authenticate proves passphrase against the vault verifier. A vault sealed
// without a verifier is checked by opening its envelope.
func (s *Session) authenticate(passphrase string) error {
	if s.vaultVerifier.Has() {
		if !s.vaultVerifier.Verify(passphrase) {
			return ErrWrongPassphrase
		}
		return nil
	}

	envelope, err := s.records.Envelope()
	if errors.Is(err, blob.ErrNotFound) {
		return ErrNotInitialized
	}
	if err != nil {
		return fmt.Errorf("%w: %v", vault.ErrReadFailed, err)
	}
	plaintext, err := crypto.Open(envelope, passphrase)
	if err != nil {
		return ErrWrongPassphrase
	}
	crypto.ClearBytes(plaintext)
	return nil
}

// Init sets the first vault passphrase and seals an empty vault
func (s *Session) Init(ctx context.Context, passphrase string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.open(true); err != nil {
		return err
	}

	exists, err := s.records.Exists()
	if err != nil {
		return fmt.Errorf("failed to inspect vault: %w", err)
	}
	if exists || s.vaultVerifier.Has() {
		return ErrAlreadyExists
	}

	if _, err := s.rotator.Rotate(ctx, rotation.Request{New: passphrase}); err != nil {
		s.lock()
		return err
	}
	s.setUnlocked(passphrase)

	s.log.WithField("vault_id", s.vaultID).Info("vault initialized")
	return nil
}

// Unlock verifies passphrase and decrypts the records
func (s *Session) Unlock(ctx context.Context, passphrase string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.open(false); err != nil {
		return err
	}
	if err := s.authenticate(passphrase); err != nil {
		return err
	}
	if err := s.records.Load(passphrase); err != nil {
		return err
	}
	s.setUnlocked(passphrase)

	s.log.WithField("records", len(s.records.Records())).Debug("vault unlocked")
	return nil
}

// Lock discards the decrypted records
func (s *Session) Lock() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lock()
}

// Unlocked reports whether records are available
func (s *Session) Unlocked() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unlocked
}

// VerifyPassword checks passphrase without unlocking
func (s *Session) VerifyPassword(passphrase string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.open(false); err != nil {
		return err
	}
	return s.authenticate(passphrase)
}

// Add creates a record and persists the vault
func (s *Session) Add(title, username, password string, notes *string) (vault.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.unlocked {
		return vault.Record{}, ErrLocked
	}
	record := vault.NewRecord(title, username, password, notes)
	if err := s.records.Add(record, s.passphrase); err != nil {
		return vault.Record{}, err
	}

	s.log.WithField("records", len(s.records.Records())).Debug("record added")
	return record, nil
}

// Update replaces the record with the same ID and persists the vault
func (s *Session) Update(record vault.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.unlocked {
		return ErrLocked
	}
	if err := s.records.Update(record, s.passphrase); err != nil {
		return err
	}

	s.log.Debug("record updated")
	return nil
}

// Delete removes the record with id and persists the vault
func (s *Session) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.unlocked {
		return ErrLocked
	}
	if err := s.records.Delete(vault.Record{ID: id}, s.passphrase); err != nil {
		return err
	}

	s.log.WithField("records", len(s.records.Records())).Debug("record deleted")
	return nil
}

// Records returns the unlocked records in insertion order
func (s *Session) Records() ([]vault.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.unlocked {
		return nil, ErrLocked
	}
	return s.records.Records(), nil
}

// Record returns the record with id
func (s *Session) Record(id string) (vault.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.unlocked {
		return vault.Record{}, ErrLocked
	}
	record, ok := s.records.Find(id)
	if !ok {
		return vault.Record{}, vault.ErrRecordNotFound
	}
	return record, nil
}

// ChangePassword rotates the vault passphrase from current to next.
// On success the session is unlocked under next.
func (s *Session) ChangePassword(ctx context.Context, current, next string) (*rotation.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.open(false); err != nil {
		return nil, err
	}

	res, err := s.rotator.Rotate(ctx, rotation.Request{Old: &current, New: next})
	if err != nil {
		if !s.unlocked {
			s.records.Reset()
		}
		if errors.Is(err, rotation.ErrWrongPassphrase) {
			err = fmt.Errorf("%w: %w", ErrWrongPassphrase, err)
		}
		return res, err
	}
	s.setUnlocked(next)
	return res, nil
}

// Destroy deletes the sealed vault, both verifiers and any cached
// passphrase after verifying passphrase. The backend keeps its vault ID, so
// Init can start over on the same path.
func (s *Session) Destroy(ctx context.Context, passphrase string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.open(false); err != nil {
		return err
	}
	if err := s.authenticate(passphrase); err != nil {
		return err
	}

	s.lock()
	if err := s.records.Destroy(); err != nil {
		return err
	}
	if err := errors.Join(s.vaultVerifier.Delete(), s.masterVerifier.Delete()); err != nil {
		return fmt.Errorf("vault deleted, but verifiers remain: %w", err)
	}
	if s.cache.HasPassword(s.vaultID) {
		if err := s.cache.DeletePassword(s.vaultID); err != nil {
			s.log.WithError(err).Warn("failed to remove cached passphrase")
		}
	}

	s.log.WithField("vault_id", s.vaultID).Info("vault destroyed")
	return nil
}

// StatusInfo describes a vault without decrypting it
type StatusInfo struct {
	Path            string
	Backend         string
	Secrets         string
	VaultID         string
	VaultPresent    bool
	VerifierPresent bool
	MasterPresent   bool
	Unlocked        bool
	Records         int
	Size            int64
	Created         time.Time
	Modified        time.Time
	Algorithm       string
	KDFIterations   int
	Version         int
	GitStatus       *git.Status
}

// Status returns the current status (no passphrase required)
func (s *Session) Status(ctx context.Context) (*StatusInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.open(false); err != nil {
		return nil, err
	}

	status := &StatusInfo{
		Path:            s.cfg.Path,
		Backend:         s.cfg.Backend,
		Secrets:         s.cfg.Secrets,
		VaultID:         s.vaultID,
		VerifierPresent: s.vaultVerifier.Has(),
		MasterPresent:   s.masterVerifier.Has(),
		Unlocked:        s.unlocked,
		Algorithm:       "AES-256-GCM",
		KDFIterations:   crypto.DefaultIters,
		Version:         1,
	}

	exists, err := s.records.Exists()
	if err != nil {
		return nil, fmt.Errorf("failed to inspect vault: %w", err)
	}
	status.VaultPresent = exists
	if s.unlocked {
		status.Records = len(s.records.Records())
	}

	if info, err := os.Stat(s.cfg.Path); err == nil && !info.IsDir() {
		status.Size = info.Size()
	}
	if s.db != nil {
		// Not critical
		status.Created, _ = s.db.GetCreated()
		status.Modified, _ = s.db.GetModified()
	}
	if gitStatus, err := git.Check(s.cfg.Path); err == nil {
		status.GitStatus = gitStatus
	}
	return status, nil
}

// Export writes the sealed vault envelope to path
func (s *Session) Export(ctx context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.open(false); err != nil {
		return err
	}

	envelope, err := s.records.Envelope()
	if errors.Is(err, blob.ErrNotFound) {
		return ErrNotInitialized
	}
	if err != nil {
		return fmt.Errorf("%w: %v", vault.ErrReadFailed, err)
	}
	if err := blob.WriteFileAtomic(path, envelope); err != nil {
		return fmt.Errorf("failed to export vault: %w", err)
	}

	s.log.WithField("bytes", len(envelope)).Info("vault exported")
	return nil
}

// Compact compacts the database to reclaim unused space.
// This is useful after a rotation rewrote the vault.
func (s *Session) Compact() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cfg.Backend != config.BackendBolt {
		return ErrCompactUnsupported
	}
	if err := s.open(false); err != nil {
		return err
	}
	return s.db.Compact()
}

// GetVaultID returns the vault ID
func (s *Session) GetVaultID() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.open(false); err != nil {
		return "", err
	}
	return s.vaultID, nil
}

// SetMasterPassword sets the master passphrase. Replacing an existing one
// requires current.
func (s *Session) SetMasterPassword(ctx context.Context, current, next string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.open(false); err != nil {
		return err
	}
	if s.masterVerifier.Has() && !s.masterVerifier.Verify(current) {
		return ErrWrongPassphrase
	}
	if err := policy.Check(s.policy, next); err != nil {
		return err
	}
	if err := s.masterVerifier.Set(next); err != nil {
		return fmt.Errorf("failed to set master passphrase: %w", err)
	}

	s.log.WithField("scope", verifier.ScopeMaster).Info("master passphrase set")
	return nil
}

// HasMasterPassword reports whether a master passphrase is set
func (s *Session) HasMasterPassword() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.open(false); err != nil {
		return false, err
	}
	return s.masterVerifier.Has(), nil
}

// CheckMasterPassword verifies passphrase against the master scope
func (s *Session) CheckMasterPassword(passphrase string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.open(false); err != nil {
		return err
	}
	return s.checkMaster(passphrase)
}

func (s *Session) checkMaster(passphrase string) error {
	if !s.masterVerifier.Has() {
		return ErrNoMasterPassword
	}
	if !s.masterVerifier.Verify(passphrase) {
		return ErrWrongPassphrase
	}
	return nil
}

// ClearMasterPassword removes the master passphrase after verifying it
func (s *Session) ClearMasterPassword(passphrase string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.open(false); err != nil {
		return err
	}
	if err := s.checkMaster(passphrase); err != nil {
		return err
	}
	if err := s.masterVerifier.Delete(); err != nil {
		return fmt.Errorf("failed to clear master passphrase: %w", err)
	}

	s.log.WithField("scope", verifier.ScopeMaster).Info("master passphrase cleared")
	return nil
}

// CachePassword stores a verified vault passphrase in the OS keyring
func (s *Session) CachePassword(passphrase string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.open(false); err != nil {
		return err
	}
	if err := s.authenticate(passphrase); err != nil {
		return err
	}
	if err := s.cache.SavePassword(s.vaultID, passphrase); err != nil {
		return fmt.Errorf("failed to save to keyring: %w", err)
	}
	return nil
}

// CachedPassword returns the passphrase cached for this vault, if any
func (s *Session) CachedPassword() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.open(false); err != nil {
		return "", false
	}
	password, err := s.cache.GetPassword(s.vaultID)
	if err != nil {
		return "", false
	}
	return password, true
}

// HasCachedPassword reports whether a passphrase is cached for this vault
func (s *Session) HasCachedPassword() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.open(false); err != nil {
		return false
	}
	return s.cache.HasPassword(s.vaultID)
}

// ForgetPassword removes the cached passphrase
func (s *Session) ForgetPassword() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.open(false); err != nil {
		return err
	}
	return s.cache.DeletePassword(s.vaultID)
}

// DecryptFile opens an exported envelope with passphrase and returns its records
func DecryptFile(ctx context.Context, path, passphrase string) ([]vault.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	plaintext, err := crypto.Open(data, passphrase)
	if err != nil {
		if errors.Is(err, crypto.ErrDecryptionFailed) {
			return nil, fmt.Errorf("%w: %w", ErrWrongPassphrase, err)
		}
		return nil, err
	}
	defer crypto.ClearBytes(plaintext)

	return vault.Decode(plaintext)
}
