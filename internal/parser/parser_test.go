package parser

import (
	"testing"

	"github.com/MeKo-Tech/labelscan/internal/extractor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fragment(text string, confidence float64) extractor.TextFragment {
	return extractor.TextFragment{Text: text, Confidence: confidence}
}

func TestParse_RouterStickerVocabulary(t *testing.T) {
	p := New()
	creds := p.Parse([]extractor.TextFragment{
		fragment("Network Name (SSID): MyWiFi_5G Network Key (Password): SecurePass123!", 0.9),
	})
	require.Len(t, creds, 1)
	assert.Equal(t, "MyWiFi_5G", creds[0].Identifier)
	assert.Equal(t, "SecurePass123!", creds[0].Secret)
	assert.InDelta(t, 0.9, creds[0].Confidence, 1e-9)
}

func TestParse_PlainSSIDPasswordVocabulary(t *testing.T) {
	p := New()
	creds := p.Parse([]extractor.TextFragment{
		fragment("SSID: HomeNet Password: correcthorse", 0.8),
	})
	require.Len(t, creds, 1)
	assert.Equal(t, "HomeNet", creds[0].Identifier)
	assert.Equal(t, "correcthorse", creds[0].Secret)
}

func TestParse_GermanVocabulary(t *testing.T) {
	p := New()
	creds := p.Parse([]extractor.TextFragment{
		fragment("Netzwerkname: MeinNetz Schlüssel: geheim1234", 0.7),
	})
	require.Len(t, creds, 1)
	assert.Equal(t, "MeinNetz", creds[0].Identifier)
	assert.Equal(t, "geheim1234", creds[0].Secret)
}

func TestParse_NoMatchIsEmpty(t *testing.T) {
	p := New()
	assert.Empty(t, p.Parse([]extractor.TextFragment{
		fragment("random text without any labels", 0.9),
	}))
}

func TestParse_ZeroFragments(t *testing.T) {
	p := New()
	assert.Empty(t, p.Parse(nil))
}

func TestParse_SplitMatchCarriesPenalty(t *testing.T) {
	p := New()
	// Identifier and secret appear without a recognized compound layout:
	// the secret label comes before the identifier label.
	creds := p.Parse([]extractor.TextFragment{
		fragment("Password: longenough1 then elsewhere SSID: MyNet", 1.0),
	})
	require.Len(t, creds, 1)
	assert.Equal(t, "MyNet", creds[0].Identifier)
	assert.Equal(t, "longenough1", creds[0].Secret)
	assert.InDelta(t, 0.8, creds[0].Confidence, 1e-9)
}

func TestParse_CorroborationBonus(t *testing.T) {
	p := New()
	creds := p.Parse([]extractor.TextFragment{
		fragment("SSID: TwoPart", 0.6),
		fragment("Password: longsecret9", 0.6),
	})
	require.Len(t, creds, 1)
	// Mean 0.6 plus the multi-fragment bonus.
	assert.InDelta(t, 0.7, creds[0].Confidence, 1e-9)
}

func TestParse_ConfidenceCappedAtOne(t *testing.T) {
	p := New()
	creds := p.Parse([]extractor.TextFragment{
		fragment("SSID: CapNet", 0.99),
		fragment("Password: longsecret9", 0.99),
	})
	require.Len(t, creds, 1)
	assert.LessOrEqual(t, creds[0].Confidence, 1.0)
}

func TestParse_InvalidFieldsRejected(t *testing.T) {
	p := New()
	// Secret too short.
	assert.Empty(t, p.Parse([]extractor.TextFragment{
		fragment("SSID: FineNet Password: short1", 0.9),
	}))
	// Identifier purely numeric.
	assert.Empty(t, p.Parse([]extractor.TextFragment{
		fragment("SSID: 123456 Password: longenough1", 0.9),
	}))
}

func TestValidIdentifier(t *testing.T) {
	assert.True(t, ValidIdentifier("MyWiFi_5G"))
	assert.False(t, ValidIdentifier(""))
	assert.False(t, ValidIdentifier("12345678"))
	assert.False(t, ValidIdentifier(`bad"name`))
	assert.False(t, ValidIdentifier("an-identifier-well-over-thirty-two-characters"))
}

func TestValidSecret(t *testing.T) {
	assert.True(t, ValidSecret("SecurePass123!"))
	assert.True(t, ValidSecret("12345678"))
	assert.False(t, ValidSecret("short1"))
	assert.False(t, ValidSecret(`pass<word>1`))
}
