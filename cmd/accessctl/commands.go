package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/seagrayinc/access-profiles/internal/config"
	"github.com/seagrayinc/access-profiles/internal/metrics"
	"github.com/seagrayinc/access-profiles/pkg/access"
	"github.com/seagrayinc/access-profiles/pkg/framing"
	"github.com/seagrayinc/access-profiles/pkg/hid"
	"github.com/seagrayinc/access-profiles/pkg/library"
	"github.com/seagrayinc/access-profiles/pkg/profile"
)

const usage = `usage: accessctl [-config file] <command> [args]

commands:
  devices                      list attached controllers
  pull                         load slots 1-3 from the controller into the library
  push                         save the profiles assigned to slots 1-3 to the controller
  list                         list library profiles
  show <n>                     show profile n
  new <name>                   add an empty profile
  assign <slot> <n|->          bind slot to profile n, or clear it
  delete <n>                   delete profile n
  rename <n> <name>            rename profile n
  import <file>                merge a library document
  export <file|->              write the library as a document

Profiles are numbered from 1 as shown by list.
`

var errUsage = errors.New("invalid arguments")

type app struct {
	cfg    *config.Config
	logger *slog.Logger
	out    io.Writer

	manager func() (hid.Manager, error)
	probe   func(vendorID, productID uint16) (hid.ProbeResult, error)
	now     func() time.Time
}

func newApp(cfg *config.Config, logger *slog.Logger, out io.Writer) *app {
	return &app{
		cfg:     cfg,
		logger:  logger,
		out:     out,
		manager: hid.NewManager,
		probe:   hid.Probe,
		now:     time.Now,
	}
}

func (a *app) dispatch(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "devices":
		return a.devices()
	case "pull":
		return a.pull(ctx)
	case "push":
		return a.push(ctx)
	case "list":
		return a.list()
	case "show":
		return a.show(args)
	case "new":
		return a.newProfile(args)
	case "assign":
		return a.assign(args)
	case "delete":
		return a.delete(args)
	case "rename":
		return a.rename(args)
	case "import":
		return a.importDocument(args)
	case "export":
		return a.exportDocument(args)
	}
	return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
}

// ---- device ----

func (a *app) openDevice() (hid.Device, error) {
	mgr, err := a.manager()
	if err != nil {
		return nil, err
	}

	var dev hid.Device
	if a.cfg.Device.Path != "" {
		dev, err = mgr.Open(hid.Info{Path: a.cfg.Device.Path})
	} else {
		dev, err = mgr.OpenVIDPID(a.cfg.Device.VendorID, a.cfg.Device.ProductID)
	}
	if err != nil {
		res, perr := a.probe(a.cfg.Device.VendorID, a.cfg.Device.ProductID)
		if perr != nil {
			a.logger.Debug("usb probe failed", slog.Any("error", perr))
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s", err, res.Hint())
	}
	if err := access.CheckWired(dev); err != nil {
		dev.Close()
		return nil, err
	}
	return dev, nil
}

func (a *app) controller(dev hid.Device) *access.Controller {
	t := framing.NewTransport(hid.NewPeer(dev),
		framing.WithReadVerification(a.cfg.Verify()),
		framing.WithObserver(metrics.Observer{}),
		framing.WithLogger(a.logger),
	)
	c := access.NewController(t)
	c.Observer = metrics.Observer{}
	c.Logger = a.logger
	return c
}

func (a *app) devices() error {
	mgr, err := a.manager()
	if err != nil {
		return err
	}
	infos, err := mgr.List()
	if err != nil {
		return fmt.Errorf("list hid devices: %w", err)
	}

	found := hid.Filter(infos, a.cfg.Device.VendorID, a.cfg.Device.ProductID)
	for _, i := range found {
		fmt.Fprintln(a.out, i)
	}
	if len(found) > 0 {
		return nil
	}

	fmt.Fprintf(a.out, "no controller found among %d hid devices\n", len(infos))
	res, err := a.probe(a.cfg.Device.VendorID, a.cfg.Device.ProductID)
	if err != nil {
		return fmt.Errorf("usb probe: %w", err)
	}
	for _, e := range res.Matches {
		fmt.Fprintf(a.out, "usb: %s interface=%d usage=%04x:%04x\n", e.Info, e.Interface, e.UsagePage, e.Usage)
	}
	fmt.Fprintln(a.out, res.Hint())
	return nil
}

func (a *app) pull(ctx context.Context) error {
	st, err := a.load()
	if err != nil {
		return err
	}
	dev, err := a.openDevice()
	if err != nil {
		return err
	}
	defer dev.Close()

	st, bindings, loadErr := a.controller(dev).LoadAll(ctx, st)
	for _, b := range bindings {
		p, _ := st.Profile(b.Index)
		how := "matched"
		if b.Added {
			how = "added"
		}
		fmt.Fprintf(a.out, "slot %d: %d %s (%s)\n", b.Slot, b.Index+1, p.Name, how)
	}
	if len(bindings) > 0 {
		if err := a.save(st); err != nil {
			return err
		}
	}
	var ie *framing.IntegrityError
	if errors.As(loadErr, &ie) {
		return fmt.Errorf("%w (if the controller sends no checksum, set transfer.verify_checksum: false)", loadErr)
	}
	return loadErr
}

func (a *app) push(ctx context.Context) error {
	st, err := a.load()
	if err != nil {
		return err
	}
	dev, err := a.openDevice()
	if err != nil {
		return err
	}
	defer dev.Close()

	if err := a.controller(dev).SaveAll(ctx, st); err != nil {
		return err
	}
	for slot := 1; slot <= library.NumSlots; slot++ {
		p, _ := st.SlotProfile(slot)
		fmt.Fprintf(a.out, "slot %d: %s\n", slot, p.Name)
	}
	return nil
}

// ---- library ----

func (a *app) load() (library.State, error) {
	return library.LoadFile(a.cfg.Library.Path)
}

func (a *app) save(st library.State) error {
	if err := library.SaveFile(a.cfg.Library.Path, st); err != nil {
		return err
	}
	a.logger.Debug("library saved", slog.String("path", a.cfg.Library.Path), slog.Int("profiles", st.Len()))
	return nil
}

// update loads the library, applies fn and saves the result.
func (a *app) update(fn func(library.State) (library.State, error)) error {
	st, err := a.load()
	if err != nil {
		return err
	}
	st, err = fn(st)
	if err != nil {
		return err
	}
	return a.save(st)
}

func parseIndex(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%w: profile number %q", errUsage, s)
	}
	return n - 1, nil
}

func parseSlot(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > library.NumSlots {
		return 0, fmt.Errorf("%w: slot %q, want 1-%d", errUsage, s, library.NumSlots)
	}
	return n, nil
}

func wantArgs(args []string, n int) error {
	if len(args) != n {
		return fmt.Errorf("%w: expected %d argument(s), got %d", errUsage, n, len(args))
	}
	return nil
}

func (a *app) list() error {
	st, err := a.load()
	if err != nil {
		return err
	}
	if st.Len() == 0 {
		fmt.Fprintln(a.out, "library is empty")
		return nil
	}

	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "#\tNAME\tSLOTS")
	for i, p := range st.Profiles() {
		var slots []string
		for _, s := range st.SlotsOf(i) {
			slots = append(slots, strconv.Itoa(s))
		}
		fmt.Fprintf(w, "%d\t%s\t%s\n", i+1, p.Name, strings.Join(slots, ","))
	}
	return w.Flush()
}

func (a *app) show(args []string) error {
	if err := wantArgs(args, 1); err != nil {
		return err
	}
	i, err := parseIndex(args[0])
	if err != nil {
		return err
	}
	st, err := a.load()
	if err != nil {
		return err
	}
	p, ok := st.Profile(i)
	if !ok {
		return fmt.Errorf("no profile %d", i+1)
	}
	fmt.Fprint(a.out, profile.Format(p))
	return nil
}

func (a *app) newProfile(args []string) error {
	if err := wantArgs(args, 1); err != nil {
		return err
	}
	return a.update(func(st library.State) (library.State, error) {
		st, i, err := st.Add(profile.New(args[0]))
		if err == nil {
			fmt.Fprintf(a.out, "added %d\n", i+1)
		}
		return st, err
	})
}

func (a *app) assign(args []string) error {
	if err := wantArgs(args, 2); err != nil {
		return err
	}
	slot, err := parseSlot(args[0])
	if err != nil {
		return err
	}
	if args[1] == "-" {
		return a.update(func(st library.State) (library.State, error) {
			return st.Unassign(slot)
		})
	}
	i, err := parseIndex(args[1])
	if err != nil {
		return err
	}
	return a.update(func(st library.State) (library.State, error) {
		return st.Assign(slot, i)
	})
}

func (a *app) delete(args []string) error {
	if err := wantArgs(args, 1); err != nil {
		return err
	}
	i, err := parseIndex(args[0])
	if err != nil {
		return err
	}
	return a.update(func(st library.State) (library.State, error) {
		return st.Delete(i)
	})
}

func (a *app) rename(args []string) error {
	if err := wantArgs(args, 2); err != nil {
		return err
	}
	i, err := parseIndex(args[0])
	if err != nil {
		return err
	}
	return a.update(func(st library.State) (library.State, error) {
		return st.Rename(i, args[1])
	})
}

func (a *app) importDocument(args []string) error {
	if err := wantArgs(args, 1); err != nil {
		return err
	}
	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("open document: %w", err)
	}
	defer f.Close()

	doc, err := library.ParseDocument(f)
	if err != nil {
		return err
	}
	return a.update(func(st library.State) (library.State, error) {
		st, res := st.Merge(doc)
		fmt.Fprintf(a.out, "imported %d profile(s), %d already present\n", res.Added, res.Matched)
		return st, nil
	})
}

func (a *app) exportDocument(args []string) error {
	if err := wantArgs(args, 1); err != nil {
		return err
	}
	st, err := a.load()
	if err != nil {
		return err
	}
	doc := st.Export(a.now())

	if args[0] == "-" {
		return library.WriteDocument(a.out, doc)
	}
	f, err := os.Create(args[0])
	if err != nil {
		return fmt.Errorf("create document: %w", err)
	}
	if err := library.WriteDocument(f, doc); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
