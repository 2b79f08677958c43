package i18n

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalog_Translate(t *testing.T) {
	c, err := NewCatalog("hu", Messages{
		"hu": {"Active": "Aktív", "Name": "Név"},
		"en": {"Active": "Active"},
	})
	require.NoError(t, err)

	assert.Equal(t, "Aktív", c.Translate("Active"))
	assert.Equal(t, "Név", c.Translate("Name"))
	assert.Equal(t, "Unknown", c.Translate("Unknown"))
}

func TestCatalog_TranslatePercent(t *testing.T) {
	c, err := NewCatalog("hu", Messages{
		"hu": {"100% done": "100% kész"},
		"en": {"50% off": "50% off"},
	})
	require.NoError(t, err)

	assert.Equal(t, "100% kész", c.Translate("100% done"))
	assert.Equal(t, "50% off", c.Translate("50% off"))
	assert.Equal(t, "5% left", c.Translate("5% left"))
}

func TestLoadCatalog(t *testing.T) {
	c, err := LoadCatalog("de", strings.NewReader("de:\n  Inactive: Inaktiv\n"))
	require.NoError(t, err)
	assert.Equal(t, "Inaktiv", c.Translate("Inactive"))

	_, err = NewCatalog("not a tag!", nil)
	assert.Error(t, err)
}

func TestHumanize(t *testing.T) {
	assert.Equal(t, "First Name", Humanize("first_name"))
	assert.Equal(t, "Address City", Humanize("address.city"))
}

func TestTranslatorFunc(t *testing.T) {
	var tr Translator = TranslatorFunc(strings.ToUpper)
	assert.Equal(t, "OK", tr.Translate("ok"))
}
