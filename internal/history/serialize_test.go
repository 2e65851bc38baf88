package history

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/micromata/projectforge-sub013/internal/model"
	"github.com/micromata/projectforge-sub013/internal/testutil"
)

func TestSerializeValue(t *testing.T) {
	at := time.Date(2024, 3, 1, 23, 15, 0, 0, time.UTC)
	emp := &testutil.Employee{Base: model.Base{ID: model.IDPtr(12)}}

	tests := []struct {
		name string
		kind model.Kind
		val  model.Value
		want string
	}{
		{"text", model.KindText, model.Text("plain"), "plain"},
		{"text nfc", model.KindText, model.Text("Cafe\u0301"), "Caf\u00e9"},
		{"int", model.KindInt, model.Int(-42), "-42"},
		{"float", model.KindFloat, model.Float(4.5), "4.5"},
		{"bool", model.KindBool, model.Bool(true), "true"},
		{"decimal keeps scale", model.KindDecimal, model.MustDecimal("10.50"), "10.50"},
		{"decimal large exponent", model.KindDecimal, model.MustDecimal("1E+3"), "1000"},
		{"date", model.KindDate, model.Time(at), "2024-03-01"},
		{"datetime utc", model.KindDateTime, model.Time(at.In(time.FixedZone("X", 3600))), "2024-03-01T23:15:00Z"},
		{"reference", model.KindReference, model.RefOf(emp), "12"},
		{"members sorted", model.KindCollection, model.Members{
			testutil.NewPosition(9, 0, ""), testutil.NewPosition(2, 0, ""), testutil.NewPosition(5, 0, ""),
		}, "2,5,9"},
		{"members empty", model.KindCollection, model.Members{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SerializeValue(tt.kind, tt.val, time.UTC)
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, tt.want, *got)
		})
	}
}

func TestSerializeValue_Null(t *testing.T) {
	for _, v := range []model.Value{nil, model.Null{}, model.Decimal{}, model.Ref{}} {
		got, err := SerializeValue(model.KindText, v, time.UTC)
		require.NoError(t, err)
		assert.Nil(t, got)
	}
}

func TestSerializeValue_DateInLocation(t *testing.T) {
	late := time.Date(2024, 3, 1, 23, 30, 0, 0, time.UTC)
	got, err := SerializeValue(model.KindDate, model.Time(late), time.FixedZone("UTC+2", 2*3600))
	require.NoError(t, err)
	assert.Equal(t, "2024-03-02", *got)
}

func TestSerializeValue_MissingIdentity(t *testing.T) {
	_, err := SerializeValue(model.KindReference, model.RefOf(&testutil.Employee{}), time.UTC)
	assert.ErrorIs(t, err, ErrNoIdentity)

	_, err = SerializeValue(model.KindCollection, model.Members{testutil.NewPosition(0, 1, "")}, time.UTC)
	assert.ErrorIs(t, err, ErrNoIdentity)
}

func TestParseOp(t *testing.T) {
	for _, op := range []Op{OpUndefined, OpInsert, OpUpdate, OpDelete} {
		got, err := ParseOp(op.String())
		require.NoError(t, err)
		assert.Equal(t, op, got)
	}
	got, err := ParseOp("")
	require.NoError(t, err)
	assert.Equal(t, OpUndefined, got)

	_, err = ParseOp("upsert")
	assert.Error(t, err)
}
