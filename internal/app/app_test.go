package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ArticleHarvester/internal/config"
	"ArticleHarvester/internal/ports"
)

func TestNewWithoutDatabase(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.Browser.Driver = config.DriverHTTP
	cfg.Output.Dir = t.TempDir()

	a, err := New(context.Background(), cfg, nil)
	require.NoError(t, err)
	defer a.Close()

	_, err = a.History(context.Background(), 5)
	assert.Error(t, err)

	session, err := a.sessionOpener(nil)(context.Background())
	require.NoError(t, err)
	_, err = session.CurrentURL(context.Background())
	assert.ErrorIs(t, err, ports.ErrNoPage)
}

func TestLocatorOptionsFromConfig(t *testing.T) {
	t.Parallel()

	site := config.Default().Site
	site.Mutations = []config.MutationConfig{{Replace: "/article/", With: "/download/"}, {Append: "/file"}}
	site.Selectors.Resource = []string{".get-pdf"}

	opts := locatorOptions(site)
	assert.Equal(t, site.BaseURL, opts.BaseURL)
	assert.Equal(t, []string{".get-pdf"}, opts.Selectors)
	require.Len(t, opts.Mutations, 2)
	assert.Equal(t, "/download/", opts.Mutations[0].With)
	assert.Equal(t, "/file", opts.Mutations[1].Append)

	assert.Nil(t, locatorOptions(config.Default().Site).Mutations)
}
