package services

import (
	"context"
	"errors"
	"testing"

	"github.com/dmitrijs2005/modelkeeper/internal/common"
	"github.com/dmitrijs2005/modelkeeper/internal/server/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ann = &auth.Identity{AccountID: 1, Email: "a@x.com"}

func TestModelList_OnlyOwn(t *testing.T) {
	db, mock := newSQLMockDB(t)
	mock.ExpectBegin()
	mock.ExpectCommit()

	s := NewModelService(db, newFixture(), nil)
	out, err := s.List(context.Background(), ann)
	require.NoError(t, err)
	require.Len(t, out, 2)
	for _, m := range out {
		assert.Equal(t, int64(1), m.OwnerID)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestModelList_Anonymous(t *testing.T) {
	db, mock := newSQLMockDB(t)

	s := NewModelService(db, newFixture(), nil)
	_, err := s.List(context.Background(), nil)
	assert.ErrorIs(t, err, common.ErrorUnauthenticated)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestModelGet(t *testing.T) {
	tests := []struct {
		name    string
		caller  *auth.Identity
		id      int64
		want    auth.Outcome
		wantErr error
	}{
		{name: "own", caller: ann, id: 3, want: auth.Allowed},
		{name: "foreign", caller: ann, id: 7, want: auth.Forbidden, wantErr: common.ErrorForbidden},
		{name: "missing", caller: ann, id: 999, want: auth.NotFound, wantErr: common.ErrorNotFound},
		{name: "anonymous", caller: nil, id: 3, want: auth.Unauthenticated, wantErr: common.ErrorUnauthenticated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newSQLMockDB(t)
			if tt.caller != nil {
				mock.ExpectBegin()
				mock.ExpectCommit()
			}
			obs := &recordingObserver{}
			s := NewModelService(db, newFixture(), obs)

			m, err := s.Get(context.Background(), tt.caller, tt.id)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, m)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.id, m.ID)
			}
			assert.Equal(t, []decision{{auth.KindModel, tt.want}}, obs.decisions)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestModelGet_StorageErrorRollsBack(t *testing.T) {
	db, mock := newSQLMockDB(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	rm := newFixture()
	rm.m.getErr = errBoom{}
	obs := &recordingObserver{}
	s := NewModelService(db, rm, obs)

	_, err := s.Get(context.Background(), ann, 3)
	assert.True(t, errors.Is(err, errBoom{}), "got %v", err)
	assert.Empty(t, obs.decisions)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPredict(t *testing.T) {
	db, mock := newSQLMockDB(t)
	for i := 0; i < 3; i++ {
		mock.ExpectBegin()
		mock.ExpectCommit()
	}
	obs := &recordingObserver{}
	s := NewModelService(db, newFixture(), obs)

	first, err := s.Predict(context.Background(), ann, 3)
	require.NoError(t, err)
	assert.InDelta(t, 1.4, first, 1e-9)

	for i := 0; i < 2; i++ {
		again, err := s.Predict(context.Background(), ann, 3)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
	assert.Equal(t, []string{"linear_regression", "linear_regression", "linear_regression"}, obs.predictions)
	assert.Zero(t, obs.failures)
}

func TestPredict_UnknownAlgorithm(t *testing.T) {
	db, mock := newSQLMockDB(t)
	mock.ExpectBegin()
	mock.ExpectCommit()
	obs := &recordingObserver{}
	s := NewModelService(db, newFixture(), obs)

	_, err := s.Predict(context.Background(), ann, 4)
	assert.ErrorIs(t, err, common.ErrorAlgorithmNotFound)
	assert.Equal(t, 1, obs.failures)
}

func TestPredict_InvalidParameters(t *testing.T) {
	db, mock := newSQLMockDB(t)
	mock.ExpectBegin()
	mock.ExpectCommit()

	rm := newFixture()
	rm.m.byID[3].Weights = vec(`[0.1,0.2]`)
	s := NewModelService(db, rm, nil)

	_, err := s.Predict(context.Background(), ann, 3)
	assert.ErrorIs(t, err, common.ErrorInvalidModelParameters)
}

func TestPredict_NonNumericStoredVectors(t *testing.T) {
	for _, raw := range []string{`["a",1]`, `[1e400,1]`, `{"x":1}`} {
		t.Run(raw, func(t *testing.T) {
			db, mock := newSQLMockDB(t)
			mock.ExpectBegin()
			mock.ExpectCommit()
			mock.ExpectBegin()
			mock.ExpectCommit()
			mock.ExpectBegin()
			mock.ExpectCommit()

			rm := newFixture()
			rm.m.byID[3].Inputs = vec(raw)
			rm.m.byID[7].Inputs = vec(raw)
			obs := &recordingObserver{}
			s := NewModelService(db, rm, obs)

			_, err := s.Predict(context.Background(), ann, 3)
			assert.ErrorIs(t, err, common.ErrorInvalidModelParameters)
			assert.Equal(t, 1, obs.failures)

			m, err := s.Get(context.Background(), ann, 3)
			require.NoError(t, err)
			assert.Equal(t, raw, string(m.Inputs))

			_, err = s.Get(context.Background(), ann, 7)
			assert.ErrorIs(t, err, common.ErrorForbidden)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestPredict_GuardFirst(t *testing.T) {
	db, mock := newSQLMockDB(t)
	mock.ExpectBegin()
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectCommit()
	obs := &recordingObserver{}
	s := NewModelService(db, newFixture(), obs)

	_, err := s.Predict(context.Background(), ann, 7)
	assert.ErrorIs(t, err, common.ErrorForbidden)
	_, err = s.Predict(context.Background(), ann, 12345)
	assert.ErrorIs(t, err, common.ErrorNotFound)
	_, err = s.Predict(context.Background(), nil, 3)
	assert.ErrorIs(t, err, common.ErrorUnauthenticated)

	assert.Empty(t, obs.predictions)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAlgorithms(t *testing.T) {
	s := NewModelService(nil, newFixture(), nil)

	_, err := s.Algorithms(nil)
	assert.ErrorIs(t, err, common.ErrorUnauthenticated)

	names, err := s.Algorithms(ann)
	require.NoError(t, err)
	assert.Contains(t, names, "linear_regression")
}

func TestModelCreate(t *testing.T) {
	db, mock := newSQLMockDB(t)
	mock.ExpectBegin()
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectRollback()

	rm := newFixture()
	s := NewModelService(db, rm, nil)

	_, err := s.Create(context.Background(), 1, "eval", nil, nil)
	assert.ErrorIs(t, err, common.ErrorAlgorithmNotFound)

	m, err := s.Create(context.Background(), 1, "perceptron", []float64{1}, []float64{2})
	require.NoError(t, err)
	assert.Equal(t, int64(200), m.ID)
	assert.Equal(t, int64(1), rm.m.created.OwnerID)
	assert.Equal(t, `[2]`, string(rm.m.created.Weights))

	_, err = s.Create(context.Background(), 42, "perceptron", nil, nil)
	assert.ErrorIs(t, err, common.ErrorNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}
