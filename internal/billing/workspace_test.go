package billing

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"billing/internal/config"
)

func TestOpenWorkspace(t *testing.T) {
	dir := t.TempDir()
	_, err := config.Init(dir)
	require.NoError(t, err)
	require.NoError(t, os.RemoveAll(filepath.Join(dir, "contracts")))
	require.NoError(t, os.CopyFS(filepath.Join(dir, "contracts"), os.DirFS("testdata/contracts")))

	cfg, err := config.Load(dir)
	require.NoError(t, err)

	_, err = Open(cfg)
	assert.ErrorContains(t, err, "invoice mail template", "init leaves writing templates to the caller")

	require.NoError(t, os.WriteFile(cfg.InvoiceMail.Template, []byte("{{.Invoice.ID}}"), 0o644))
	require.NoError(t, os.WriteFile(cfg.ContractMail.Template, []byte("{{.Contract.ID}}"), 0o644))

	engine, err := Open(cfg)
	require.NoError(t, err)

	run, err := engine.BillItems(context.Background(), 2019, time.October, Filter{}, false)
	require.NoError(t, err)
	assert.Equal(t, 2, run.Count(StatusCreated))
	assert.FileExists(t, filepath.Join(cfg.BilledItemsDir, "1000.yaml"))

	run, err = engine.RenderContracts(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 3, run.Count(StatusCreated))
}
