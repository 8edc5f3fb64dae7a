package i18n_test

import (
	"testing"
	"testing/fstest"

	"github.com/jrsteele09/go-portfolio/i18n"
	"github.com/jrsteele09/go-portfolio/locale"
	"github.com/stretchr/testify/require"
)

func TestLoadEmbedded(t *testing.T) {
	c, err := i18n.LoadEmbedded()
	require.NoError(t, err)
	require.NoError(t, c.Validate())

	require.Equal(t, "Tableau de bord", c.T(locale.French, "backoffice.sections.dashboard"))
	require.Equal(t, "Dashboard", c.T(locale.English, "backoffice.sections.dashboard"))
}

func TestT_FallsBackToKey(t *testing.T) {
	c := i18n.New(map[locale.Locale]i18n.Dictionary{
		locale.English: {"nav.home": "Home"},
		locale.French:  {"nav.home": ""},
	})

	require.Equal(t, "Home", c.T(locale.English, "nav.home"))
	require.Equal(t, "nav.home", c.T(locale.French, "nav.home"))
	require.Equal(t, "nav.missing", c.T(locale.English, "nav.missing"))
	require.Equal(t, "x.y", c.T(locale.Locale("de"), "x.y"))

	var nilCatalog *i18n.Catalog
	require.Equal(t, "nav.home", nilCatalog.T(locale.English, "nav.home"))
}

func TestParseDictionary_Flattens(t *testing.T) {
	dict, err := i18n.ParseDictionary([]byte(`{
		"a": {"b": {"c": "deep"}},
		"list": ["zero", "one"],
		"count": 3,
		"flag": true,
		"nothing": null
	}`))
	require.NoError(t, err)

	require.Equal(t, i18n.Dictionary{
		"a.b.c":  "deep",
		"list.0": "zero",
		"list.1": "one",
		"count":  "3",
		"flag":   "true",
	}, dict)
}

func TestParseDictionary_Invalid(t *testing.T) {
	_, err := i18n.ParseDictionary([]byte(`["not", "an", "object"]`))
	require.Error(t, err)
}

func TestValidate_ReportsMissingKeys(t *testing.T) {
	c := i18n.New(map[locale.Locale]i18n.Dictionary{
		locale.English: {"nav.home": "Home", "nav.contact": "Contact"},
		locale.French:  {"nav.home": "Accueil"},
	})

	err := c.Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "fr: missing nav.contact")
}

func TestLoad_MissingLocaleFile(t *testing.T) {
	fsys := fstest.MapFS{
		"en.json": {Data: []byte(`{"nav": {"home": "Home"}}`)},
	}
	_, err := i18n.Load(fsys)
	require.Error(t, err)
	require.Contains(t, err.Error(), "fr.json")
}

func TestTranslator(t *testing.T) {
	c := i18n.New(map[locale.Locale]i18n.Dictionary{
		locale.French: {"nav.home": "Accueil"},
	})
	tr := c.Translator(locale.French)
	require.Equal(t, "Accueil", tr("nav.home"))
	require.Equal(t, []string{"nav.home"}, c.Keys(locale.French))
}
