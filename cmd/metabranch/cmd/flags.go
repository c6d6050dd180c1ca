package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/metabranch/metabranch/pkg/core"
	"github.com/metabranch/metabranch/pkg/events"
	"github.com/metabranch/metabranch/pkg/logger"
	"github.com/metabranch/metabranch/pkg/model"
	"github.com/metabranch/metabranch/pkg/store"
	"github.com/metabranch/metabranch/pkg/store/localfs"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

var params struct {
	root struct {
		storePath    string
		repoName     string
		loglevel     string
		serviceName  string
		serviceEmail string
		userName     string
		userEmail    string
	}
	account struct {
		name     string
		email    string
		status   string
		inactive bool
		meta     []string
	}
}

// addAccountFieldFlags registers the mutable account fields on a
// create or update command.
func addAccountFieldFlags(cmd *cobra.Command) {
	addAccountFieldFlagsVar(cmd.Flags())
}

func addAccountFieldFlagsVar(flags *pflag.FlagSet) {
	flags.StringVar(&params.account.name, "name", "", "display name")
	flags.StringVar(&params.account.email, "email", "", "preferred email address")
	flags.StringVar(&params.account.status, "status", "", "status line")
	flags.BoolVar(&params.account.inactive, "inactive", false, "deactivate the account")
	flags.StringSliceVar(&params.account.meta, "meta", nil, "metadata entry as key=value, repeatable; key= removes the entry")
}

// updaterFromFlags wires a fresh updater for one command invocation
func updaterFromFlags() (*core.AccountsUpdater, error) {
	mgr, err := storeFromFlags()
	if err != nil {
		return nil, err
	}
	l, err := logger.New(params.root.loglevel)
	if err != nil {
		return nil, err
	}

	bus := events.NewBus(events.BusWithLogger(l))
	bus.Subscribe(loggingListener(l))

	serviceIdent := store.Signature{Name: params.root.serviceName, Email: params.root.serviceEmail}
	opts := []core.UpdaterOption{core.WithLogger(l), core.WithEventBus(bus)}

	if params.root.userEmail != "" {
		userIdent := store.Signature{Name: params.root.userName, Email: params.root.userEmail}
		return core.NewUserUpdater(mgr, params.root.repoName, userIdent, serviceIdent, opts...), nil
	}
	return core.NewServerUpdater(mgr, params.root.repoName, serviceIdent, opts...), nil
}

func storeFromFlags() (store.Manager, error) {
	base := params.root.storePath
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		base = filepath.Join(home, ".metabranch", "store")
	}
	if err := os.MkdirAll(base, 0700); err != nil {
		return nil, fmt.Errorf("ensuring store directory %q: %v", base, err)
	}
	return localfs.New(afero.NewBasePathFs(afero.NewOsFs(), base)), nil
}

// loggingListener reports every ref transition at debug level
func loggingListener(l *zap.Logger) events.Listener {
	return events.ListenerFunc(func(_ context.Context, ev events.RefUpdate) error {
		l.Debug("ref updated",
			zap.String("event_id", ev.EventID),
			zap.String("ref", ev.Ref),
			zap.Stringer("old", ev.Old),
			zap.Stringer("new", ev.New),
			zap.String("actor", ev.Actor),
		)
		return nil
	})
}

// updaterFromFieldFlags turns the flags actually set on the command
// line into a mutation callback.
func updaterFromFieldFlags(cmd *cobra.Command) (core.Updater, error) {
	puts := make(map[string]string)
	var dels []string
	for _, entry := range params.account.meta {
		key, value, remove, err := parseMetaEntry(entry)
		if err != nil {
			return nil, err
		}
		if remove {
			dels = append(dels, key)
		} else {
			puts[key] = value
		}
	}

	changed := func(name string) bool { return cmd.Flags().Changed(name) }
	setName, setEmail, setStatus, setActive := changed("name"), changed("email"), changed("status"), changed("inactive")
	name, email, status := params.account.name, params.account.email, params.account.status
	active := !params.account.inactive

	return func(_ *model.AccountDescriptor, b *model.UpdateBuilder) {
		if setName {
			b.SetName(name)
		}
		if setEmail {
			b.SetPreferredEmail(email)
		}
		if setStatus {
			b.SetStatus(status)
		}
		if setActive {
			b.SetActive(active)
		}
		for k, v := range puts {
			b.PutMetadata(k, v)
		}
		for _, k := range dels {
			b.DeleteMetadata(k)
		}
	}, nil
}

// parseMetaEntry splits a --meta argument into key and value; a
// trailing "key=" form requests removal.
func parseMetaEntry(entry string) (key, value string, remove bool, err error) {
	k, v, found := strings.Cut(entry, "=")
	if !found || k == "" {
		return "", "", false, fmt.Errorf("invalid --meta entry %q: expect key=value", entry)
	}
	if v == "" {
		return k, "", true, nil
	}
	return k, v, false, nil
}

func accountIDArg(args []string) (model.AccountID, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("expect exactly one account id argument")
	}
	return model.ParseAccountID(args[0])
}
