package hubspotcmder_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/chatdeck/cmd/chatdeck/deps"
	hubspotcmder "github.com/papercomputeco/chatdeck/cmd/chatdeck/hubspot"
	"github.com/papercomputeco/chatdeck/pkg/analytics"
	"github.com/papercomputeco/chatdeck/pkg/backend"
	"github.com/papercomputeco/chatdeck/pkg/cliui"
	"github.com/papercomputeco/chatdeck/pkg/config"
	"github.com/papercomputeco/chatdeck/pkg/logger"
	testutils "github.com/papercomputeco/chatdeck/pkg/utils/test"
)

// pagedBackend serves rows from a fixed listing, one backend page at a time.
type pagedBackend struct {
	*testutils.MockBackend
	rows  []backend.HubSpotSession
	pages []backend.Page
}

func (b *pagedBackend) HubSpotSessions(_ context.Context, _ backend.DateRange, page backend.Page) (*backend.HubSpotPage, error) {
	b.pages = append(b.pages, page)
	end := min(page.Offset+page.Limit, len(b.rows))
	start := min(page.Offset, end)
	return &backend.HubSpotPage{
		Sessions: b.rows[start:end],
		Total:    len(b.rows),
		Limit:    page.Limit,
		Offset:   page.Offset,
	}, nil
}

var _ = Describe("hubspot command", func() {
	var (
		mock  *testutils.MockBackend
		paged *pagedBackend
		cfg   *config.Config
		out   *bytes.Buffer
	)

	execute := func(args ...string) error {
		cmd := hubspotcmder.NewHubSpotCmd(&deps.Deps{Backend: paged, Config: cfg, Logger: logger.Nop()})
		cmd.SetOut(out)
		cmd.SetErr(out)
		cmd.SetArgs(args)
		return cmd.Execute()
	}

	BeforeEach(func() {
		out = &bytes.Buffer{}
		mock = testutils.NewMockBackend()
		cfg = config.NewDefaultConfig()
		cfg.Dashboard.PageSize = 2

		interactions := []backend.Interaction{
			backend.InteractionRendered, backend.InteractionFilled, backend.InteractionNone,
			backend.InteractionRendered, backend.InteractionFilled,
		}
		rows := make([]backend.HubSpotSession, 0, len(interactions))
		for i, interaction := range interactions {
			rows = append(rows, backend.HubSpotSession{SessionID: fmt.Sprintf("sess-%d", i), Interaction: interaction})
		}
		paged = &pagedBackend{MockBackend: mock, rows: rows}
	})

	Describe("list", func() {
		It("prints one page with counts and a paging hint", func() {
			Expect(execute("list")).To(Succeed())

			output := out.String()
			Expect(output).To(ContainSubstring("sess-0"))
			Expect(output).To(ContainSubstring("sess-1"))
			Expect(output).NotTo(ContainSubstring("sess-2"))
			Expect(output).To(ContainSubstring("rendered 1  filled 1  none 0"))
			Expect(output).To(ContainSubstring("--offset 2"))
			Expect(paged.pages).To(Equal([]backend.Page{{Limit: 2, Offset: 0}}))
		})

		It("loads every page under one loading step", func() {
			Expect(execute("list", "--all")).To(Succeed())
			output := out.String()
			Expect(output).To(ContainSubstring("Loading HubSpot interactions"))
			Expect(output).To(ContainSubstring(cliui.SuccessMark))
			Expect(output).To(ContainSubstring("sess-4"))
			Expect(paged.pages).To(HaveLen(3))
		})

		It("honors --offset", func() {
			Expect(execute("list", "--offset", "4")).To(Succeed())
			Expect(out.String()).To(ContainSubstring("sess-4"))
			Expect(out.String()).NotTo(ContainSubstring("next page"))
		})

		It("walks every page with --all", func() {
			Expect(execute("list", "--all", "--json")).To(Succeed())

			var view analytics.HubSpotView
			Expect(json.Unmarshal(out.Bytes(), &view)).To(Succeed())
			Expect(view.Page.Sessions).To(HaveLen(5))
			Expect(view.Counts[backend.InteractionRendered]).To(Equal(2))
			Expect(view.HasMore).To(BeFalse())
			Expect(paged.pages).To(HaveLen(3))
		})

		It("narrows by interaction", func() {
			Expect(execute("list", "--all", "--interaction", "filled")).To(Succeed())

			output := out.String()
			Expect(output).To(ContainSubstring("sess-1"))
			Expect(output).To(ContainSubstring("sess-4"))
			Expect(output).NotTo(ContainSubstring("sess-0"))
		})

		It("rejects unknown interactions", func() {
			err := execute("list", "--interaction", "clicked")
			Expect(errors.Is(err, backend.ErrInvalidInteraction)).To(BeTrue())
			Expect(paged.pages).To(BeEmpty())
		})

		It("uses the page size flag without a loaded config", func() {
			cfg = nil
			Expect(execute("list", "--page-size", "3")).To(Succeed())
			Expect(paged.pages[0].Limit).To(Equal(3))
		})

		It("rejects malformed dates", func() {
			Expect(execute("list", "--from", "yesterday")).To(MatchError(ContainSubstring("invalid from date")))
		})
	})

	Describe("report", func() {
		It("records an interaction", func() {
			Expect(execute("report", "sess-9", "Filled")).To(Succeed())
			Expect(mock.Reports).To(ConsistOf(backend.HubSpotReport{
				SessionID:   "sess-9",
				Interaction: backend.InteractionFilled,
			}))
		})

		It("rejects unknown interactions", func() {
			err := execute("report", "sess-9", "clicked")
			Expect(errors.Is(err, backend.ErrInvalidInteraction)).To(BeTrue())
			Expect(mock.Reports).To(BeEmpty())
		})

		It("wraps backend failures", func() {
			mock.Err = &backend.RequestError{Endpoint: backend.EndpointHubSpotInteraction, StatusCode: 500}
			Expect(execute("report", "sess-9", "none")).To(MatchError(HavePrefix("Failed to report HubSpot interaction")))
		})
	})
})
