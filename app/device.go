package app

import (
	"context"
	"io"
	"io/fs"
	"net/http"

	"github.com/pkg/errors"

	"github.com/mbolis/field-survey/catalog"
	"github.com/mbolis/field-survey/config"
	"github.com/mbolis/field-survey/gateway"
	"github.com/mbolis/field-survey/geo"
	"github.com/mbolis/field-survey/ledger"
	"github.com/mbolis/field-survey/log"
	"github.com/mbolis/field-survey/network"
	"github.com/mbolis/field-survey/notice"
	"github.com/mbolis/field-survey/session"
	"github.com/mbolis/field-survey/storage"
)

// corruptSuffix names the key a corrupt ledger value is copied to before the
// ledger starts over empty.
const corruptSuffix = ".corrupt"

// Device owns everything the field side needs: the local store, both
// ledgers, the form session and the catalog.
type Device struct {
	Config  config.Config
	Store   *storage.Store
	Catalog *catalog.Catalog
	Drafts  *ledger.Drafts
	Surveys *ledger.Surveys
	Session *session.Session
}

type deviceOptions struct {
	local http.Handler
}

type DeviceOption func(*deviceOptions)

// WithLocalRemote posts surveys straight into h, which serves the ingest API
// under /api, instead of over the network.
func WithLocalRemote(h http.Handler) DeviceOption {
	return func(o *deviceOptions) { o.local = h }
}

// NewDevice opens the configured store and loads both ledgers from it.
// Notices are printed on out.
func NewDevice(ctx context.Context, cfg config.Config, out io.Writer, opts ...DeviceOption) (*Device, error) {
	var o deviceOptions
	for _, opt := range opts {
		opt(&o)
	}

	locator, err := geo.FromConfig(cfg.Location)
	if err != nil {
		return nil, err
	}

	cat, err := catalog.Load(cfg.Catalog)
	if errors.Is(err, fs.ErrNotExist) {
		log.Warnf("app.catalog: %s not found, no templates available", cfg.Catalog)
		cat, err = catalog.Parse(nil)
	}
	if err != nil {
		return nil, err
	}

	st, err := storage.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var gw gateway.Gateway = gateway.NewHTTP(cfg.Remote, cfg.Timeout)
	var monitor network.Monitor = network.NewProbe(cfg.ProbeURL, cfg.Timeout)
	if o.local != nil {
		gw = gateway.NewHandler("/api", o.local)
		monitor = network.Static{Connected: true}
	}
	if cfg.Offline {
		monitor = network.Static{Connected: false}
	}

	d := &Device{
		Config:  cfg,
		Store:   st,
		Catalog: cat,
		Drafts:  ledger.NewDrafts(st, cfg.DraftsKey),
		Surveys: ledger.NewSurveys(st, cfg.SurveysKey, ledger.Remote{
			Gateway:  gw,
			Endpoint: cfg.Endpoint,
			Monitor:  monitor,
			Notifier: notice.NewConsole(out),
		}),
	}
	d.Session = session.New(d.Drafts, d.Surveys, locator,
		session.WithSpecializedTemplate(cfg.SpecializedTemplate))

	if err := d.load(ctx, cfg.DraftsKey, d.Drafts.Load); err != nil {
		st.Close()
		return nil, err
	}
	if err := d.load(ctx, cfg.SurveysKey, d.Surveys.Load); err != nil {
		st.Close()
		return nil, err
	}
	return d, nil
}

// load runs a ledger load. A corrupt value is copied aside and the ledger
// starts empty; any other error is returned.
func (d *Device) load(ctx context.Context, key string, fn func(context.Context) error) error {
	err := fn(ctx)
	if err == nil || !errors.Is(err, ledger.ErrCorrupt) {
		return err
	}

	aside := key + corruptSuffix
	fields := log.Fields{"key": key, "aside": aside}
	if cerr := d.Store.CopyRaw(ctx, key, aside); cerr != nil {
		fields["aside_error"] = cerr.Error()
		delete(fields, "aside")
	}
	log.WithFields(fields).Warnf("app.load: %s, starting empty", err)
	return nil
}

func (d *Device) Close() error {
	return d.Store.Close()
}
