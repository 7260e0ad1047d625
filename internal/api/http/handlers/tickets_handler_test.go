package handlers

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facilityworks/helpdesk/internal/domain"
	"github.com/facilityworks/helpdesk/internal/service"
)

func TestParseTicketQuery(t *testing.T) {
	capture := func(t *testing.T, target string) service.TicketListFilter {
		t.Helper()
		app := fiber.New()
		var filter service.TicketListFilter
		app.Get("/tickets", func(c *fiber.Ctx) error {
			filter = parseTicketQuery(c)
			return c.SendStatus(fiber.StatusNoContent)
		})
		resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, target, nil))
		require.NoError(t, err)
		require.Equal(t, fiber.StatusNoContent, resp.StatusCode)
		return filter
	}

	t.Run("recently updated first is the default", func(t *testing.T) {
		filter := capture(t, "/tickets")
		assert.True(t, filter.RecentlyUpdatedFirst)
	})

	t.Run("creation order on request", func(t *testing.T) {
		filter := capture(t, "/tickets?recent_first=false")
		assert.False(t, filter.RecentlyUpdatedFirst)
	})

	t.Run("field filters parse", func(t *testing.T) {
		filter := capture(t, "/tickets?status=OPEN&type=IT&priority=HIGH&requester=u1&assignee=u2")
		require.NotNil(t, filter.Status)
		assert.Equal(t, domain.TicketStatusOpen, *filter.Status)
		require.NotNil(t, filter.Type)
		assert.Equal(t, domain.TicketTypeIT, *filter.Type)
		require.NotNil(t, filter.Priority)
		assert.Equal(t, domain.TicketPriorityHigh, *filter.Priority)
		require.NotNil(t, filter.Requester)
		assert.Equal(t, "u1", *filter.Requester)
		require.NotNil(t, filter.Assignee)
		assert.Equal(t, "u2", *filter.Assignee)
		assert.True(t, filter.RecentlyUpdatedFirst)
	})
}
