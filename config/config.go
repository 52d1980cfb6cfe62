package config

import (
	"flag"
	"net"
	"os"
	"regexp"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/mbolis/quick-xform/compiler"
	"github.com/mbolis/quick-xform/expression"
)

type Config struct {
	Addr        string
	DBUrl       string
	TokenSecret string
	TokenTTL    time.Duration
	Debug       bool
	Compiler    Compiler
}

// Compiler holds the compile defaults of the service.
type Compiler struct {
	DefaultLanguage string `yaml:"default_language"`
	FormName        string `yaml:"form_name"`
	CacheSize       int    `yaml:"cache_size"`
	Pretty          bool   `yaml:"pretty"`
}

// Options converts the section to compiler options.
func (c Compiler) Options() compiler.Options {
	opts := compiler.Options{DefaultLanguage: c.DefaultLanguage, FormName: c.FormName}
	if c.Pretty {
		opts.Indent = "  "
	}
	return opts
}

// Apply sizes the shared expression cache.
func (c Compiler) Apply() {
	if c.CacheSize > 0 {
		expression.SetDefaultCacheSize(c.CacheSize)
	}
}

// file is the layout of the -config YAML file. Command line flags win over
// its values.
type file struct {
	Host        string   `yaml:"host"`
	Port        uint     `yaml:"port"`
	DBUrl       string   `yaml:"db_url"`
	TokenSecret string   `yaml:"token_secret"`
	TokenTTL    uint     `yaml:"token_ttl"`
	Debug       bool     `yaml:"debug"`
	Compiler    Compiler `yaml:"compiler"`
}

func ParseFlags() (cfg Config, err error) {
	return Parse(os.Args[1:])
}

func Parse(args []string) (cfg Config, err error) {
	fs := flag.NewFlagSet("quick-xform", flag.ContinueOnError)
	var host string
	fs.StringVar(&host, "host", "0.0.0.0", "listen host name (default 0.0.0.0)")
	var port uint
	fs.UintVar(&port, "port", 80, "listen port number (default 80)")
	fs.StringVar(&cfg.DBUrl, "db-url", "qxform.sqlite", "path to SQLite3 DB file (default qxform.sqlite)")
	fs.StringVar(&cfg.TokenSecret, "token-secret", "", "secret key for token encryption and decryption")
	var ttl uint
	fs.UintVar(&ttl, "token-ttl", 120, "token TTL in seconds (default 120)")
	fs.BoolVar(&cfg.Debug, "debug", false, "log at DEBUG level")
	var path string
	fs.StringVar(&path, "config", "", "path to a YAML configuration file")
	if err = fs.Parse(args); err != nil {
		return
	}

	cfg.Compiler = Compiler{CacheSize: expression.DefaultCacheSize, Pretty: true}
	if path != "" {
		set := map[string]bool{}
		fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

		f := file{Compiler: cfg.Compiler}
		if err = load(path, &f); err != nil {
			return
		}
		if f.Host != "" && !set["host"] {
			host = f.Host
		}
		if f.Port != 0 && !set["port"] {
			port = f.Port
		}
		if f.DBUrl != "" && !set["db-url"] {
			cfg.DBUrl = f.DBUrl
		}
		if f.TokenSecret != "" && !set["token-secret"] {
			cfg.TokenSecret = f.TokenSecret
		}
		if f.TokenTTL != 0 && !set["token-ttl"] {
			ttl = f.TokenTTL
		}
		if f.Debug && !set["debug"] {
			cfg.Debug = true
		}
		cfg.Compiler = f.Compiler
	}

	cfg.Addr = net.JoinHostPort(host, strconv.Itoa(int(port)))
	cfg.TokenTTL = time.Duration(ttl) * time.Second

	if cfg.TokenSecret == "" {
		err = errors.New("missing parameter -token-secret")
	}

	return
}

func load(path string, f *file) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "read config")
	}
	return errors.Wrapf(yaml.Unmarshal(data, f), "parse config %s", path)
}

func (cfg Config) Url() (url string) {
	url = cfg.Addr
	url = regexp.MustCompile(`^0.0.0.0`).ReplaceAllString(url, "localhost")
	url = "http://" + url
	return
}
