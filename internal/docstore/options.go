package docstore

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/roach88/formdb/internal/config"
	"github.com/roach88/formdb/internal/model"
)

// DefaultDatabase is used when the connection string names no database.
const DefaultDatabase = "formsg"

// clientOptions translates the configured option mapping into driver options.
func clientOptions(uri string, o config.DriverOptions) (*options.ClientOptions, error) {
	opts := options.Client().ApplyURI(uri)

	if o.AppName != "" {
		opts.SetAppName(o.AppName)
	}
	if o.MaxPoolSize > 0 {
		opts.SetMaxPoolSize(o.MaxPoolSize)
	}
	if o.MinPoolSize > 0 {
		opts.SetMinPoolSize(o.MinPoolSize)
	}
	if o.ConnectTimeoutMS > 0 {
		opts.SetConnectTimeout(time.Duration(o.ConnectTimeoutMS) * time.Millisecond)
	}
	if o.ServerSelectionTimeoutMS > 0 {
		opts.SetServerSelectionTimeout(time.Duration(o.ServerSelectionTimeoutMS) * time.Millisecond)
	}
	if o.ReplicaSet != "" {
		opts.SetReplicaSet(o.ReplicaSet)
	}
	if o.ReadPreference != "" {
		mode, err := model.ParseReadMode(o.ReadPreference)
		if err != nil {
			return nil, err
		}
		opts.SetReadPreference(readPref(mode))
	}
	if o.RetryWrites != nil {
		opts.SetRetryWrites(*o.RetryWrites)
	}
	if o.DirectConnection != nil {
		opts.SetDirect(*o.DirectConnection)
	}
	if o.Username != "" {
		opts.SetAuth(options.Credential{
			Username:   o.Username,
			Password:   o.Password,
			AuthSource: o.AuthSource,
		})
	}

	return opts, nil
}

func readPref(mode model.ReadMode) *readpref.ReadPref {
	switch mode {
	case model.PrimaryPreferred:
		return readpref.PrimaryPreferred()
	case model.Secondary:
		return readpref.Secondary()
	case model.SecondaryPreferred:
		return readpref.SecondaryPreferred()
	case model.Nearest:
		return readpref.Nearest()
	default:
		return readpref.Primary()
	}
}

// splitURI separates "scheme://userinfo@hosts/path?query" into its parts.
// The driver accepts host lists ("a:1,b:2") that net/url rejects, so this
// does not go through url.Parse.
func splitURI(uri string) (scheme, userinfo, hosts, path, query string) {
	rest := uri
	if i := strings.Index(rest, "://"); i >= 0 {
		scheme, rest = rest[:i], rest[i+3:]
	}
	if i := strings.IndexByte(rest, '?'); i >= 0 {
		rest, query = rest[:i], rest[i+1:]
	}
	if i := strings.IndexByte(rest, '/'); i >= 0 {
		rest, path = rest[:i], rest[i+1:]
	}
	if i := strings.LastIndexByte(rest, '@'); i >= 0 {
		userinfo, rest = rest[:i], rest[i+1:]
	}
	return scheme, userinfo, rest, path, query
}

// DatabaseFromURI returns the database named in the connection string path.
func DatabaseFromURI(uri string) string {
	_, _, _, path, _ := splitURI(uri)
	if path == "" {
		return DefaultDatabase
	}
	return path
}

// RedactURI hides the password in a connection string.
func RedactURI(uri string) string {
	scheme, userinfo, hosts, path, query := splitURI(uri)
	if userinfo == "" {
		return uri
	}

	if user, _, hasPass := strings.Cut(userinfo, ":"); hasPass {
		userinfo = user + ":xxxxx"
	}

	var b strings.Builder
	if scheme != "" {
		b.WriteString(scheme + "://")
	}
	b.WriteString(userinfo + "@" + hosts)
	if path != "" || query != "" {
		b.WriteString("/" + path)
	}
	if query != "" {
		b.WriteString("?" + query)
	}
	return b.String()
}
