package dashboardcmder

import (
	"context"
	"fmt"
	"net"

	"github.com/papercomputeco/chatdeck/api"
	"github.com/papercomputeco/chatdeck/pkg/analytics"
)

func (c *dashboardCommander) runWeb(ctx context.Context, query analytics.Querier, filters analytics.Filters, resolved settings) error {
	server := api.NewServer(api.Config{
		Defaults: filters,
		Days:     resolved.days,
		PageSize: resolved.pageSize,
		Registry: c.deps.Registry,
	}, query, c.deps.Log())

	lc := net.ListenConfig{}
	listener, err := lc.Listen(ctx, "tcp", resolved.listen)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", resolved.listen, err)
	}

	fmt.Fprintf(c.out, "dashboard running at http://%s\n", listener.Addr())

	go func() {
		<-ctx.Done()
		_ = server.Shutdown()
	}()

	return server.Serve(listener)
}
