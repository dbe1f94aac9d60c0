package crm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gestaozabele/comercial/internal/store/memstore"
)

type fakeWriter struct {
	err   error
	calls []Status
}

func (f *fakeWriter) UpdateStatus(ctx context.Context, id string, status Status, at time.Time) (*Oportunidade, error) {
	f.calls = append(f.calls, status)
	if f.err != nil {
		return nil, f.err
	}
	return &Oportunidade{ID: id, Status: status, DataAtualizacao: at}, nil
}

func TestTransitionUsesPrimary(t *testing.T) {
	primary, secondary := &fakeWriter{}, &fakeWriter{}
	tr := NewStatusTransitioner(primary, secondary)

	res, err := tr.UpdateStatus(context.Background(), "42", "proposta_enviada")
	require.NoError(t, err)
	assert.Equal(t, SourceRemote, res.Source)
	assert.True(t, res.Success)
	require.NotNil(t, res.Data)
	assert.Equal(t, StatusPropostaEnviada, res.Data.Status)
	assert.Empty(t, secondary.calls)
}

func TestTransitionFallsBackOnPrimaryFailure(t *testing.T) {
	primary := &fakeWriter{err: errors.New("connection refused")}
	secondary := &fakeWriter{}
	tr := NewStatusTransitioner(primary, secondary)

	res, err := tr.UpdateStatus(context.Background(), "42", "negociacao")
	require.NoError(t, err)
	assert.Equal(t, SourceLocalFile, res.Source)
	assert.Equal(t, StatusNegociacao, res.Status)
	assert.Nil(t, res.Data)
	assert.Equal(t, []Status{StatusNegociacao}, secondary.calls)
}

func TestTransitionRejectsInvalidStatusBeforeWriting(t *testing.T) {
	primary, secondary := &fakeWriter{}, &fakeWriter{}
	tr := NewStatusTransitioner(primary, secondary)

	_, err := tr.UpdateStatus(context.Background(), "42", "ganhou")
	assert.True(t, errors.Is(err, ErrValidation))
	_, err = tr.UpdateStatus(context.Background(), " ", "negociacao")
	assert.True(t, errors.Is(err, ErrValidation))
	assert.Empty(t, primary.calls)
	assert.Empty(t, secondary.calls)
}

func TestTransitionBothStoresFail(t *testing.T) {
	tr := NewStatusTransitioner(&fakeWriter{err: errors.New("timeout")}, &fakeWriter{err: ErrNotFound})
	_, err := tr.UpdateStatus(context.Background(), "999", "negociacao")
	assert.True(t, errors.Is(err, ErrNotFound))

	tr = NewStatusTransitioner(&fakeWriter{err: errors.New("timeout")}, &fakeWriter{err: errors.New("disco cheio")})
	_, err = tr.UpdateStatus(context.Background(), "42", "negociacao")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disco cheio")
}

func TestTransitionWithoutSecondary(t *testing.T) {
	boom := errors.New("timeout")
	tr := NewStatusTransitioner(&fakeWriter{err: boom}, nil)
	_, err := tr.UpdateStatus(context.Background(), "42", "negociacao")
	assert.ErrorIs(t, err, boom)
}

func TestTransitionStopsWhenContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	secondary := &fakeWriter{}
	tr := NewStatusTransitioner(&fakeWriter{err: context.Canceled}, secondary)

	_, err := tr.UpdateStatus(ctx, "42", "negociacao")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, secondary.calls)
}

func TestRemoteTransitionSameStatusTwice(t *testing.T) {
	db := memstore.New()
	created, err := NewOportunidadeService(db).Create(context.Background(), OportunidadeInput{Titulo: "Portal", ClienteID: "c1"})
	require.NoError(t, err)
	tr := NewStatusTransitioner(NewRemoteStatusWriter(db), &fakeWriter{})

	var last *StatusResult
	for i := 0; i < 2; i++ {
		last, err = tr.UpdateStatus(context.Background(), created.ID, "negociacao")
		require.NoError(t, err)
		assert.Equal(t, SourceRemote, last.Source)
	}

	got, err := NewOportunidadeService(db).Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusNegociacao, got.Status)
	require.NotNil(t, last.Data)
	assert.Equal(t, got.ID, last.Data.ID)
}
