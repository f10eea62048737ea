// Command rpm manages a local encrypted password vault from the terminal.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/howeyc/gopass"

	"github.com/kv-gits/rpm/internal/config"
	"github.com/kv-gits/rpm/internal/platform"
	"github.com/kv-gits/rpm/internal/rpmerr"
	"github.com/kv-gits/rpm/internal/server"
	"github.com/kv-gits/rpm/internal/session"
	"github.com/kv-gits/rpm/internal/vault"
)

func main() {
	log.SetFlags(0)
	if err := platform.DisableCoreDumps(); err != nil {
		log.Printf("warning: could not disable core dumps: %v", err)
	}

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "init":
		cmdInit(os.Args[2:])
	case "add":
		cmdAdd(os.Args[2:])
	case "get":
		cmdGet(os.Args[2:])
	case "copy":
		cmdCopy(os.Args[2:])
	case "list":
		cmdList(os.Args[2:])
	case "rename":
		cmdRename(os.Args[2:])
	case "delete":
		cmdDelete(os.Args[2:])
	case "serve":
		cmdServe(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprint(os.Stderr, `rpm commands:

  init    --dir path                      provision a vault directory
  add     --name NAME [--secret S]        add a secret (prompted when omitted)
  get     --name NAME | --id ID           print a secret
  copy    --name NAME [--ttl seconds]     copy a secret, clear after ttl
  list                                    list entries
  rename  --id ID --name NEW              rename an entry
  delete  --name NAME | --id ID           remove an entry and its record
  serve   [--addr host:port]              run the extension stub listener

Common flags: --dir (vault directory), --conf (config file path).
`)
}

type common struct {
	fs   *flag.FlagSet
	dir  *string
	conf *string
}

func newCommon(name string) common {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	return common{
		fs:   fs,
		dir:  fs.String("dir", "", "vault directory (default from config)"),
		conf: fs.String("conf", "", "config file path"),
	}
}

// vaultDir resolves the vault directory: flag first, app config otherwise.
func (c common) vaultDir() string {
	if *c.dir != "" {
		return *c.dir
	}
	path := *c.conf
	if path == "" {
		p, err := config.DefaultPath()
		dieIf(err)
		path = p
	}
	cfg, err := config.Load(path)
	dieIf(err)
	return cfg.VaultDir
}

func (c common) appConfig() config.Config {
	path := *c.conf
	if path == "" {
		p, err := config.DefaultPath()
		dieIf(err)
		path = p
	}
	cfg, err := config.Load(path)
	dieIf(err)
	if *c.dir != "" {
		cfg.VaultDir = *c.dir
	}
	return cfg
}

func cmdInit(args []string) {
	c := newCommon("init")
	_ = c.fs.Parse(args)

	v, err := vault.Open(c.vaultDir())
	dieIf(err)
	if v.Provisioned() {
		log.Fatalf("vault at %s is already initialized", v.Dir())
	}

	master := prompt("Master password: ")
	if prompt("Confirm master password: ") != master {
		log.Fatal("passwords do not match")
	}
	dieIf(v.Create(context.Background(), master))
	defer v.Lock()
	fmt.Printf("vault initialized at %s\n", v.Dir())
}

func cmdAdd(args []string) {
	c := newCommon("add")
	name := c.fs.String("name", "", "entry name")
	secret := c.fs.String("secret", "", "secret value (prompted when omitted)")
	_ = c.fs.Parse(args)
	if *name == "" {
		log.Fatal("--name is required")
	}

	v := unlock(c)
	defer v.Lock()

	value := *secret
	if value == "" {
		value = prompt("Secret: ")
	}
	id, err := v.AddSecret(context.Background(), *name, value)
	dieIf(err)
	fmt.Println(id)
}

func cmdGet(args []string) {
	c := newCommon("get")
	name := c.fs.String("name", "", "entry name")
	id := c.fs.String("id", "", "entry id")
	_ = c.fs.Parse(args)

	v := unlock(c)
	defer v.Lock()

	secret, err := resolveSecret(v, *id, *name)
	dieIf(err)
	fmt.Println(secret)
}

func cmdCopy(args []string) {
	c := newCommon("copy")
	name := c.fs.String("name", "", "entry name")
	id := c.fs.String("id", "", "entry id")
	ttl := c.fs.Int("ttl", -1, "seconds before the clipboard is cleared (default from config)")
	_ = c.fs.Parse(args)

	appCfg := c.appConfig()
	timeout := time.Duration(appCfg.ClipboardTimeoutSeconds) * time.Second
	if *ttl >= 0 {
		timeout = time.Duration(*ttl) * time.Second
	}

	v := unlock(c)
	defer v.Lock()

	secret, err := resolveSecret(v, *id, *name)
	dieIf(err)

	guard := session.NewClipboardGuard(platform.NewClipboard())
	dieIf(guard.Copy(secret, timeout))
	if timeout > 0 {
		fmt.Printf("copied; clearing in %s\n", timeout)
		// the clear timer dies with the process, so hold on for it
		time.Sleep(timeout + 100*time.Millisecond)
	} else {
		fmt.Println("copied")
	}
}

func cmdList(args []string) {
	c := newCommon("list")
	_ = c.fs.Parse(args)

	v := unlock(c)
	defer v.Lock()

	entries, err := v.List(context.Background())
	dieIf(err)
	for _, e := range entries {
		fmt.Printf("%s\t%s\n", e.ID, e.Name)
	}
}

func cmdRename(args []string) {
	c := newCommon("rename")
	id := c.fs.String("id", "", "entry id")
	name := c.fs.String("name", "", "new entry name")
	_ = c.fs.Parse(args)
	if *id == "" || *name == "" {
		log.Fatal("--id and --name are required")
	}

	v := unlock(c)
	defer v.Lock()
	dieIf(v.RenameSecret(context.Background(), *id, *name))
}

func cmdDelete(args []string) {
	c := newCommon("delete")
	name := c.fs.String("name", "", "entry name")
	id := c.fs.String("id", "", "entry id")
	_ = c.fs.Parse(args)

	v := unlock(c)
	defer v.Lock()

	ctx := context.Background()
	target := *id
	if target == "" {
		if *name == "" {
			log.Fatal("--id or --name is required")
		}
		found, ok, err := v.FindByName(ctx, *name)
		dieIf(err)
		if !ok {
			log.Fatalf("no entry named %q", *name)
		}
		target = found
	}
	dieIf(v.DeleteSecret(ctx, target))
}

func cmdServe(args []string) {
	c := newCommon("serve")
	addr := c.fs.String("addr", "", "listen address (default from config)")
	_ = c.fs.Parse(args)

	appCfg := c.appConfig()
	if *addr != "" {
		appCfg.ListenAddr = *addr
	}
	srv := server.New(server.Config{Addr: appCfg.ListenAddr, VaultDir: appCfg.VaultDir})
	log.Fatal(srv.ListenAndServe())
}

func unlock(c common) *vault.Vault {
	v, err := vault.Open(c.vaultDir())
	dieIf(err)
	if !v.Provisioned() {
		log.Fatalf("vault at %s is not initialized; run rpm init", v.Dir())
	}
	master := prompt("Master password: ")
	if err := v.Unlock(context.Background(), master); err != nil {
		if rpmerr.KindOf(err) == rpmerr.AuthenticationFailed {
			log.Fatal("wrong master password")
		}
		dieIf(err)
	}
	return v
}

func resolveSecret(v *vault.Vault, id, name string) (string, error) {
	ctx := context.Background()
	switch {
	case id != "":
		return v.GetSecret(ctx, id)
	case name != "":
		return v.GetSecretByName(ctx, name)
	}
	return "", fmt.Errorf("--id or --name is required")
}

func prompt(msg string) string {
	fmt.Fprint(os.Stderr, msg)
	pw, err := gopass.GetPasswd()
	dieIf(err)
	return string(pw)
}

func dieIf(err error) {
	if err != nil {
		log.Fatal("[error] ", err)
	}
}
