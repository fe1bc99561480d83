package postgres

import (
	"context"
	"fmt"
	"net"
	"time"

	pgxdecimal "github.com/jackc/pgx-shopspring-decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/flowlogic-api/pkg/config"
)

// NewPool abre el pool con DATABASE_URL o, si falta, con el DSN armado desde DB_*.
// Con DB_FORCE_IPV4 las conexiones salen por tcp4 hacia el registro A del host.
func NewPool(ctx context.Context, cfg config.DBConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("parse DSN: %w", err)
	}

	if cfg.ForceIPv4 {
		poolConfig.ConnConfig.DialFunc = newIPv4Dialer(resolverFor(cfg.Resolver)).DialContext
	}

	poolConfig.MaxConns = 25
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = int32(cfg.MaxConns)
	}
	poolConfig.MinConns = 2
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	// NUMERIC -> shopspring/decimal en cada conexión del pool.
	poolConfig.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		pgxdecimal.Register(conn.TypeMap())
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("crear pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping DB: %w", err)
	}
	return pool, nil
}

// ipLookup lo cumple *net.Resolver.
type ipLookup interface {
	LookupIP(ctx context.Context, network, host string) ([]net.IP, error)
}

// resolverFor usa el DNS del sistema salvo que se indique un servidor host:port.
func resolverFor(server string) ipLookup {
	if server == "" {
		return net.DefaultResolver
	}
	return &net.Resolver{
		PreferGo: true,
		Dial: func(ctx context.Context, network, _ string) (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(ctx, network, server)
		},
	}
}

type ipv4Dialer struct {
	lookup ipLookup
	dialer net.Dialer
}

func newIPv4Dialer(lookup ipLookup) *ipv4Dialer {
	return &ipv4Dialer{lookup: lookup}
}

// DialContext tiene la firma de pgconn.DialFunc. Los sockets unix pasan sin tocar.
func (d *ipv4Dialer) DialContext(ctx context.Context, network, addr string) (net.Conn, error) {
	if network == "unix" {
		return d.dialer.DialContext(ctx, network, addr)
	}
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, err
	}
	ip, err := d.ipv4(ctx, host)
	if err != nil {
		return nil, err
	}
	return d.dialer.DialContext(ctx, "tcp4", net.JoinHostPort(ip, port))
}

func (d *ipv4Dialer) ipv4(ctx context.Context, host string) (string, error) {
	if ip := net.ParseIP(host); ip != nil {
		if ip.To4() == nil {
			return "", fmt.Errorf("%s no es una dirección IPv4", host)
		}
		return host, nil
	}
	ips, err := d.lookup.LookupIP(ctx, "ip4", host)
	if err != nil {
		return "", fmt.Errorf("resolver %s: %w", host, err)
	}
	for _, ip := range ips {
		if v4 := ip.To4(); v4 != nil {
			return v4.String(), nil
		}
	}
	return "", fmt.Errorf("%s no tiene registros A", host)
}
