package vault

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/illarion/passvault/internal/blob"
	"github.com/illarion/passvault/internal/blob/blobtest"
	"github.com/illarion/passvault/internal/crypto"
)

const testPassphrase = "Tr0ub4dor&3"

func assertRecords(t *testing.T, want, got []Record) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		assert.True(t, want[i].Equal(got[i]), "record %d: want %+v, got %+v", i, want[i], got[i])
	}
}

func TestLoadAbsentVaultIsEmpty(t *testing.T) {
	s := NewStore(blob.NewMemoryStore(), "")

	exists, err := s.Exists()
	require.NoError(t, err)
	assert.False(t, exists)
	assert.False(t, s.loaded)

	require.NoError(t, s.Load("any passphrase"))
	assert.Empty(t, s.Records())
	assert.True(t, s.loaded)
}

func TestExampleScenario(t *testing.T) {
	sink := blob.NewMemoryStore()
	s := NewStore(sink, DefaultBlobName)
	require.NoError(t, s.Load(testPassphrase))

	record := NewRecord("Email", "a@b.com", "p1", nil)
	require.NoError(t, s.Add(record, testPassphrase))

	// Reload in a fresh store
	reloaded := NewStore(sink, DefaultBlobName)
	require.NoError(t, reloaded.Load(testPassphrase))
	assertRecords(t, []Record{record}, reloaded.Records())

	// Wrong passphrase leaves the in-memory list untouched
	err := reloaded.Load("wrong")
	assert.ErrorIs(t, err, ErrWrongPassphraseOrCorrupt)
	assertRecords(t, []Record{record}, reloaded.Records())
}

func TestPersistedVaultIsEncrypted(t *testing.T) {
	sink := blob.NewMemoryStore()
	s := NewStore(sink, DefaultBlobName)
	require.NoError(t, s.Add(NewRecord("Email", "a@b.com", "hunter2", Notes("recovery codes")), testPassphrase))

	envelope, err := s.Envelope()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(envelope), crypto.MinEnvelopeSize)
	assert.NotContains(t, string(envelope), "hunter2")
	assert.NotContains(t, string(envelope), "Email")

	plaintext, err := crypto.Open(envelope, testPassphrase)
	require.NoError(t, err)
	records, err := Decode(plaintext)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestLoadCorruptVault(t *testing.T) {
	sink := blob.NewMemoryStore()
	s := NewStore(sink, DefaultBlobName)
	require.NoError(t, s.Add(NewRecord("a", "b", "c", nil), testPassphrase))
	before := s.Records()

	envelope, _ := sink.Load(DefaultBlobName)
	envelope[len(envelope)-1] ^= 0x01
	require.NoError(t, sink.Save(DefaultBlobName, envelope))
	assert.ErrorIs(t, s.Load(testPassphrase), ErrWrongPassphraseOrCorrupt)

	require.NoError(t, sink.Save(DefaultBlobName, []byte("short")))
	assert.ErrorIs(t, s.Load(testPassphrase), ErrWrongPassphraseOrCorrupt)

	assertRecords(t, before, s.Records())
}

func TestLoadMalformedPayload(t *testing.T) {
	sink := blob.NewMemoryStore()
	envelope, err := crypto.Seal([]byte("not a record list"), testPassphrase)
	require.NoError(t, err)
	require.NoError(t, sink.Save(DefaultBlobName, envelope))

	s := NewStore(sink, DefaultBlobName)
	assert.ErrorIs(t, s.Load(testPassphrase), ErrFormat)
	assert.False(t, s.loaded)
}

func TestLoadReadFailure(t *testing.T) {
	sink := blobtest.NewFaulty(blob.NewMemoryStore())
	sink.Fail(blobtest.OpLoad, DefaultBlobName)

	s := NewStore(sink, DefaultBlobName)
	assert.ErrorIs(t, s.Load(testPassphrase), ErrReadFailed)
	assert.False(t, s.loaded)
}

func TestUpdateAndDelete(t *testing.T) {
	sink := blob.NewMemoryStore()
	s := NewStore(sink, DefaultBlobName)

	a := NewRecord("Email", "a@b.com", "p1", nil)
	b := NewRecord("Bank", "me", "p2", Notes("branch 12"))
	require.NoError(t, s.Add(a, testPassphrase))
	require.NoError(t, s.Add(b, testPassphrase))

	updated := a
	updated.Password = "p1-rotated"
	updated.Notes = Notes("changed in 2026")
	require.NoError(t, s.Update(updated, testPassphrase))

	got, ok := s.Find(a.ID)
	require.True(t, ok)
	assert.True(t, updated.Equal(got))

	require.NoError(t, s.Delete(b, testPassphrase))
	_, ok = s.Find(b.ID)
	assert.False(t, ok)

	reloaded := NewStore(sink, DefaultBlobName)
	require.NoError(t, reloaded.Load(testPassphrase))
	assertRecords(t, []Record{updated}, reloaded.Records())
}

func TestUnknownAndDuplicateRecords(t *testing.T) {
	sink := blobtest.NewFaulty(blob.NewMemoryStore())
	s := NewStore(sink, DefaultBlobName)
	a := NewRecord("a", "b", "c", nil)
	require.NoError(t, s.Add(a, testPassphrase))
	calls := len(sink.Calls())

	assert.ErrorIs(t, s.Add(a, testPassphrase), ErrDuplicateRecord)
	assert.ErrorIs(t, s.Update(NewRecord("x", "y", "z", nil), testPassphrase), ErrRecordNotFound)
	assert.ErrorIs(t, s.Delete(NewRecord("x", "y", "z", nil), testPassphrase), ErrRecordNotFound)
	assert.ErrorIs(t, s.Add(Record{Title: "no id"}, testPassphrase), ErrFormat)

	assert.Len(t, sink.Calls(), calls, "rejected mutations must not touch storage")
	assertRecords(t, []Record{a}, s.Records())
}

func TestInvalidUTF8IsRejectedBeforeSave(t *testing.T) {
	sink := blobtest.NewFaulty(blob.NewMemoryStore())
	s := NewStore(sink, DefaultBlobName)
	require.NoError(t, s.Load(testPassphrase))

	valid := NewRecord("mail", "me", "p4ss", nil)
	require.NoError(t, s.Add(valid, testPassphrase))
	calls := sink.Calls()

	err := s.Add(NewRecord("t", "u", "p\xffw", nil), testPassphrase)
	assert.ErrorIs(t, err, ErrFormat)

	changed := valid.WithNotes(Notes("pin \xff"))
	err = s.Update(changed, testPassphrase)
	assert.ErrorIs(t, err, ErrFormat)

	assert.Equal(t, calls, sink.Calls(), "rejected before touching the sink")
	assertRecords(t, []Record{valid}, s.Records())

	reloaded := NewStore(sink, DefaultBlobName)
	require.NoError(t, reloaded.Load(testPassphrase))
	assertRecords(t, s.Records(), reloaded.Records())
}

func TestMutationRollbackOnSaveFailure(t *testing.T) {
	sink := blobtest.NewFaulty(blob.NewMemoryStore())
	s := NewStore(sink, DefaultBlobName)

	a := NewRecord("Email", "a@b.com", "p1", nil)
	b := NewRecord("Bank", "me", "p2", Notes("n"))
	require.NoError(t, s.Add(a, testPassphrase))
	require.NoError(t, s.Add(b, testPassphrase))
	before := s.Records()
	persisted, _ := sink.Load(DefaultBlobName)

	sink.Fail(blobtest.OpSave, DefaultBlobName)

	err := s.Add(NewRecord("New", "n", "p", nil), testPassphrase)
	assert.ErrorIs(t, err, ErrPersistFailed)
	assertRecords(t, before, s.Records())

	changed := a
	changed.Title = "Changed"
	assert.ErrorIs(t, s.Update(changed, testPassphrase), ErrPersistFailed)
	assertRecords(t, before, s.Records())

	assert.ErrorIs(t, s.Delete(b, testPassphrase), ErrPersistFailed)
	assertRecords(t, before, s.Records())

	assert.ErrorIs(t, s.Save(testPassphrase), ErrPersistFailed)
	assertRecords(t, before, s.Records())

	sink.Heal()
	after, _ := sink.Load(DefaultBlobName)
	assert.Equal(t, persisted, after, "failed saves must not change the persisted vault")
}

func TestMutationSequenceMatchesModel(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	sink := blobtest.NewFaulty(blob.NewMemoryStore())
	s := NewStore(sink, DefaultBlobName)
	require.NoError(t, s.Load(testPassphrase))

	var model []Record
	steps := 30
	if testing.Short() {
		steps = 10
	}

	for i := 0; i < steps; i++ {
		failing := rng.Intn(4) == 0
		if failing {
			sink.FailOnce(blobtest.OpSave, DefaultBlobName)
		}

		switch op := rng.Intn(3); {
		case op == 0 || len(model) == 0:
			r := NewRecord(fmt.Sprintf("title-%d", i), "user", fmt.Sprintf("pw-%d", i), nil)
			if rng.Intn(2) == 0 {
				r.Notes = Notes(fmt.Sprintf("note-%d", i))
			}
			err := s.Add(r, testPassphrase)
			if failing {
				require.ErrorIs(t, err, ErrPersistFailed)
			} else {
				require.NoError(t, err)
				model = append(model, r)
			}
		case op == 1:
			j := rng.Intn(len(model))
			r := model[j]
			r.Password = fmt.Sprintf("pw-%d-updated", i)
			err := s.Update(r, testPassphrase)
			if failing {
				require.ErrorIs(t, err, ErrPersistFailed)
			} else {
				require.NoError(t, err)
				model[j] = r
			}
		default:
			j := rng.Intn(len(model))
			err := s.Delete(model[j], testPassphrase)
			if failing {
				require.ErrorIs(t, err, ErrPersistFailed)
			} else {
				require.NoError(t, err)
				model = append(model[:j:j], model[j+1:]...)
			}
		}

		assertRecords(t, model, s.Records())
	}

	reloaded := NewStore(sink, DefaultBlobName)
	require.NoError(t, reloaded.Load(testPassphrase))
	assertRecords(t, model, reloaded.Records())
}

func TestRecordsReturnsCopy(t *testing.T) {
	s := NewStore(blob.NewMemoryStore(), DefaultBlobName)
	require.NoError(t, s.Add(NewRecord("a", "b", "c", Notes("n")), testPassphrase))

	records := s.Records()
	records[0].Title = "mutated"
	*records[0].Notes = "mutated"

	fresh := s.Records()
	assert.Equal(t, "a", fresh[0].Title)
	assert.Equal(t, "n", *fresh[0].Notes)
}

func TestResetAndDestroy(t *testing.T) {
	sink := blob.NewMemoryStore()
	s := NewStore(sink, DefaultBlobName)
	require.NoError(t, s.Add(NewRecord("a", "b", "c", nil), testPassphrase))

	s.Reset()
	assert.Empty(t, s.Records())
	assert.False(t, s.loaded)

	exists, _ := s.Exists()
	assert.True(t, exists, "reset keeps the persisted vault")

	require.NoError(t, s.Destroy())
	exists, _ = s.Exists()
	assert.False(t, exists)
}
