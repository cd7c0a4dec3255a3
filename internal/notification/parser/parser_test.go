package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFrenchTransfer(t *testing.T) {
	tx, ok := Parse("Vous avez recu un transfert de 5000 FCFA du +22370010203. ID: ABC.123-XYZ")
	require.True(t, ok)

	assert.Equal(t, int64(5000), tx.Amount)
	assert.Equal(t, "FCFA", tx.Currency)
	assert.Equal(t, "+22370010203", tx.SenderNumber)
	assert.Equal(t, "ABC.123-XYZ", tx.Reference)
	assert.Equal(t, TypeTransferReceived, tx.TransactionType)
}

func TestParseEnglishTransfer(t *testing.T) {
	tx, ok := Parse("You have received a transfer of 15 000 XOF from +226 70 00 00 01. ID: TX-42")
	require.True(t, ok)

	assert.Equal(t, int64(15000), tx.Amount)
	assert.Equal(t, "XOF", tx.Currency)
	assert.Equal(t, "+22670000001", tx.SenderNumber)
	assert.Equal(t, "TX-42", tx.Reference)
}

func TestParseThousandSeparators(t *testing.T) {
	tx, ok := Parse("Transfert de 1,250,000 FCFA du 70000001. ID: BIG1")
	require.True(t, ok)
	assert.Equal(t, int64(1250000), tx.Amount)
}

func TestParseCaseInsensitive(t *testing.T) {
	tx, ok := Parse("TRANSFERT DE 500 fcfa DU +22370010203. id: REF9")
	require.True(t, ok)
	assert.Equal(t, "FCFA", tx.Currency)
	assert.Equal(t, "REF9", tx.Reference)
}

func TestParseUnrecognized(t *testing.T) {
	for _, msg := range []string{
		"random unrelated text",
		"",
		"Votre solde est de 5000 FCFA",
	} {
		tx, ok := Parse(msg)
		assert.False(t, ok, "message %q should not parse", msg)
		assert.Nil(t, tx)
	}
}
