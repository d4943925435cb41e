//go:build integration

package integration

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/actworks/control-tower/internal/domain"
	"github.com/actworks/control-tower/internal/testutil"
)

func TestIncidents_Report_And_Get(t *testing.T) {
	admin := newTestClient(t)
	admin.LoginAsAdmin(t)

	incident := reportIncident(t, admin, "high", "equipment", "Rochelle Distribution Center - Zone A")

	assert.True(t, strings.HasPrefix(incident.ID, "ACT-ROCHELLE-"), "got id %s", incident.ID)
	assert.Equal(t, domain.IncidentStatusNew, incident.Status)
	assert.Equal(t, domain.PriorityHigh, incident.Priority)
	assert.Equal(t, "admin@example.com", incident.ReportedBy.Email)
	assert.Nil(t, incident.AssignedTo)
	assert.Nil(t, incident.AcknowledgedAt)
	assert.Equal(t, 4*60*60.0, incident.SLADeadline.Sub(incident.CreatedAt).Seconds())

	fetched := getIncident(t, admin, incident.ID)
	assert.Equal(t, incident.ID, fetched.ID)
	assert.Equal(t, incident.Title, fetched.Title)
}

func TestIncidents_Get_UnknownID(t *testing.T) {
	admin := newTestClient(t)
	admin.LoginAsAdmin(t)

	resp, err := admin.GET("/api/v1/incidents/ACT-NOWHERE-DEADBEEF")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestIncidents_Report_RejectsInvalidInput(t *testing.T) {
	admin := newTestClient(t)
	admin.LoginAsAdmin(t)

	tests := []struct {
		name string
		body map[string]string
	}{
		{"missing title", map[string]string{
			"description": "x", "location": "Gateway Logistics Hub", "alert_type": "equipment", "priority": "low",
		}},
		{"bad priority", map[string]string{
			"title": "t", "description": "x", "location": "Gateway Logistics Hub", "alert_type": "equipment", "priority": "urgent",
		}},
		{"bad alert type", map[string]string{
			"title": "t", "description": "x", "location": "Gateway Logistics Hub", "alert_type": "weather", "priority": "low",
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := admin.POST("/api/v1/incidents", tt.body)
			require.NoError(t, err)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			resp.Body.Close()
		})
	}
}

func TestIncidents_Lifecycle_FullFlow(t *testing.T) {
	admin := newTestClient(t)
	admin.LoginAsAdmin(t)

	incident := reportIncident(t, admin, "medium", "equipment", "Gateway Logistics Hub - Dock 2")

	acked := setStatus(t, admin, incident.ID, domain.IncidentStatusAcknowledged)
	require.NotNil(t, acked.AcknowledgedAt)

	inProgress := setStatus(t, admin, incident.ID, domain.IncidentStatusInProgress)
	assert.Equal(t, domain.IncidentStatusInProgress, inProgress.Status)

	resolved := setStatus(t, admin, incident.ID, domain.IncidentStatusResolved)
	require.NotNil(t, resolved.ResolvedAt)

	closed := setStatus(t, admin, incident.ID, domain.IncidentStatusClosed)
	require.NotNil(t, closed.ClosedAt)

	// Reopening keeps the historical timestamps.
	reopened := setStatus(t, admin, incident.ID, domain.IncidentStatusNew)
	assert.Equal(t, domain.IncidentStatusNew, reopened.Status)
	assert.Equal(t, acked.AcknowledgedAt, reopened.AcknowledgedAt)
	assert.Equal(t, resolved.ResolvedAt, reopened.ResolvedAt)
	assert.Equal(t, closed.ClosedAt, reopened.ClosedAt)
}

func TestIncidents_Status_InvalidTransition(t *testing.T) {
	admin := newTestClient(t)
	admin.LoginAsAdmin(t)

	incident := reportIncident(t, admin, "low", "inventory", "Russellville Fulfillment Center - Zone C")

	resp, err := admin.POST("/api/v1/incidents/"+incident.ID+"/status", map[string]string{
		"status": "resolved",
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	// Unchanged after the rejected transition
	assert.Equal(t, domain.IncidentStatusNew, getIncident(t, admin, incident.ID).Status)
}

func TestIncidents_Status_InvalidValue(t *testing.T) {
	admin := newTestClient(t)
	admin.LoginAsAdmin(t)

	incident := reportIncident(t, admin, "low", "inventory", "Gateway Logistics Hub - Zone B")

	resp, err := admin.POST("/api/v1/incidents/"+incident.ID+"/status", map[string]string{
		"status": "paused",
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestIncidents_Assign(t *testing.T) {
	admin := newTestClient(t)
	admin.LoginAsAdmin(t)

	assignee, _ := createUser(t, admin, "GRP_Maintenance")
	incident := reportIncident(t, admin, "medium", "equipment", "Rochelle Distribution Center - ASRS Aisle 4")

	resp, err := admin.POST("/api/v1/incidents/"+incident.ID+"/assign", map[string]string{
		"user_id": assignee.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var result incidentEnvelope
	testutil.DecodeJSON(t, resp, &result)
	require.NotNil(t, result.Data.AssignedTo)
	assert.Equal(t, assignee.ID, result.Data.AssignedTo.ID)
}

func TestIncidents_Assign_UnknownUser(t *testing.T) {
	admin := newTestClient(t)
	admin.LoginAsAdmin(t)

	incident := reportIncident(t, admin, "medium", "equipment", "Gateway Logistics Hub - Dock 5")

	resp, err := admin.POST("/api/v1/incidents/"+incident.ID+"/assign", map[string]string{
		"user_id": "not-a-directory-user",
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestIncidents_Notes_AppendInOrder(t *testing.T) {
	admin := newTestClient(t)
	admin.LoginAsAdmin(t)

	incident := reportIncident(t, admin, "low", "safety", "Russellville Fulfillment Center - Loading Bay 1")

	resp, err := admin.POST("/api/v1/incidents/"+incident.ID+"/notes", map[string]interface{}{
		"content": "first observation",
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp, err = admin.POST("/api/v1/incidents/"+incident.ID+"/notes", map[string]interface{}{
		"content":     "internal follow-up",
		"is_internal": true,
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var result incidentEnvelope
	testutil.DecodeJSON(t, resp, &result)
	require.Len(t, result.Data.Notes, 2)
	assert.Equal(t, "first observation", result.Data.Notes[0].Content)
	assert.Equal(t, "internal follow-up", result.Data.Notes[1].Content)
	assert.True(t, result.Data.Notes[1].IsInternal)
	assert.Equal(t, "admin@example.com", result.Data.Notes[0].Author.Email)
}

func TestIncidents_Escalate(t *testing.T) {
	admin := newTestClient(t)
	admin.LoginAsAdmin(t)

	incident := reportIncident(t, admin, "medium", "security", "Gateway Logistics Hub - Perimeter Gate")
	require.Equal(t, 0, incident.EscalationLevel)

	resp, err := admin.POST("/api/v1/incidents/"+incident.ID+"/escalate", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var result incidentEnvelope
	testutil.DecodeJSON(t, resp, &result)
	assert.Equal(t, 1, result.Data.EscalationLevel)
	assert.Equal(t, domain.PriorityHigh, result.Data.Priority)
}

func TestIncidents_Escalate_SettledRejected(t *testing.T) {
	admin := newTestClient(t)
	admin.LoginAsAdmin(t)

	incident := reportIncident(t, admin, "low", "inventory", "Rochelle Distribution Center - Zone D")
	setStatus(t, admin, incident.ID, domain.IncidentStatusAcknowledged)
	setStatus(t, admin, incident.ID, domain.IncidentStatusInProgress)
	setStatus(t, admin, incident.ID, domain.IncidentStatusResolved)

	resp, err := admin.POST("/api/v1/incidents/"+incident.ID+"/escalate", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()
}

func TestIncidents_List_Filters(t *testing.T) {
	admin := newTestClient(t)
	admin.LoginAsAdmin(t)

	needle := reportIncident(t, admin, "critical", "temperature", "Russellville Fulfillment Center - Cold Storage")

	// Search by unique title
	resp, err := admin.GET("/api/v1/incidents?search=" + needle.Title)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result incidentListEnvelope
	testutil.DecodeJSON(t, resp, &result)
	require.Len(t, result.Data, 1)
	assert.Equal(t, needle.ID, result.Data[0].ID)

	// Facility + priority narrow the same incident
	resp, err = admin.GET("/api/v1/incidents?facility=Russellville&priority=critical&search=" + needle.Title)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	testutil.DecodeJSON(t, resp, &result)
	require.Len(t, result.Data, 1)

	// A status the incident is not in excludes it
	resp, err = admin.GET("/api/v1/incidents?status=closed&search=" + needle.Title)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	testutil.DecodeJSON(t, resp, &result)
	assert.Empty(t, result.Data)
}

func TestIncidents_Stats_CountsNewReport(t *testing.T) {
	admin := newTestClient(t)
	admin.LoginAsAdmin(t)

	before := getStats(t, admin)
	reportIncident(t, admin, "low", "humidity", "Gateway Logistics Hub - Zone F")
	after := getStats(t, admin)

	assert.Equal(t, before.Data.Total+1, after.Data.Total)
	assert.Equal(t, before.Data.New+1, after.Data.New)
}

func TestIncidents_Recent_ExcludesClosed(t *testing.T) {
	admin := newTestClient(t)
	admin.LoginAsAdmin(t)

	incident := reportIncident(t, admin, "low", "inventory", "Rochelle Distribution Center - Zone E")
	setStatus(t, admin, incident.ID, domain.IncidentStatusAcknowledged)
	setStatus(t, admin, incident.ID, domain.IncidentStatusInProgress)
	setStatus(t, admin, incident.ID, domain.IncidentStatusResolved)
	setStatus(t, admin, incident.ID, domain.IncidentStatusClosed)

	resp, err := admin.GET("/api/v1/incidents/recent?limit=100")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result incidentListEnvelope
	testutil.DecodeJSON(t, resp, &result)
	for _, inc := range result.Data {
		assert.NotEqual(t, domain.IncidentStatusClosed, inc.Status)
	}
}

func TestIncidents_Recent_RejectsBadLimit(t *testing.T) {
	admin := newTestClient(t)
	admin.LoginAsAdmin(t)

	resp, err := admin.GET("/api/v1/incidents/recent?limit=banana")
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestIncidents_Insights_CriticalFlagged(t *testing.T) {
	admin := newTestClient(t)
	admin.LoginAsAdmin(t)

	incident := reportIncident(t, admin, "critical", "security", "Gateway Logistics Hub - Perimeter Gate")

	resp, err := admin.GET("/api/v1/incidents/" + incident.ID + "/insights")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result insightsEnvelope
	testutil.DecodeJSON(t, resp, &result)
	require.NotEmpty(t, result.Data)
	assert.LessOrEqual(t, len(result.Data), 3)
	// Ordered by confidence, highest first
	for i := 1; i < len(result.Data); i++ {
		assert.GreaterOrEqual(t, result.Data[i-1].Confidence, result.Data[i].Confidence)
	}
}

func TestIncidents_Select_And_Clear(t *testing.T) {
	admin := newTestClient(t)
	admin.LoginAsAdmin(t)

	incident := reportIncident(t, admin, "low", "equipment", "Russellville Fulfillment Center - Zone A")

	resp, err := admin.POST("/api/v1/incidents/"+incident.ID+"/select", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var result incidentEnvelope
	testutil.DecodeJSON(t, resp, &result)
	assert.Equal(t, incident.ID, result.Data.ID)

	resp, err = admin.POST("/api/v1/incidents/selection/clear", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()
}

func TestIncidents_ViewerCannotMutate(t *testing.T) {
	admin := newTestClient(t)
	admin.LoginAsAdmin(t)

	viewer, password := createUser(t, admin, "GRP_Contractor")
	require.Equal(t, domain.RoleViewer, viewer.Role)
	viewerClient := loginAs(t, viewer.Email, password)

	incident := reportIncident(t, admin, "low", "equipment", "Gateway Logistics Hub - Dock 7")

	// Reads are open to every authenticated role
	resp, err := viewerClient.GET("/api/v1/incidents/" + incident.ID)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// Mutations are not
	resp, err = viewerClient.POST("/api/v1/incidents", map[string]string{
		"title":       "viewer report",
		"description": "x",
		"location":    "Gateway Logistics Hub",
		"alert_type":  "equipment",
		"priority":    "low",
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	resp, err = viewerClient.POST("/api/v1/incidents/"+incident.ID+"/escalate", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()
}

func TestIncidents_OperatorCanMutate(t *testing.T) {
	admin := newTestClient(t)
	admin.LoginAsAdmin(t)

	operator, password := createUser(t, admin, "GRP_Operator")
	operatorClient := loginAs(t, operator.Email, password)

	incident := reportIncident(t, operatorClient, "medium", "equipment", "Rochelle Distribution Center - Zone B")
	assert.Equal(t, operator.Email, incident.ReportedBy.Email)

	updated := setStatus(t, operatorClient, incident.ID, domain.IncidentStatusAcknowledged)
	assert.Equal(t, domain.IncidentStatusAcknowledged, updated.Status)
}

func getStats(t *testing.T, client *testutil.Client) statsEnvelope {
	t.Helper()

	resp, err := client.GET("/api/v1/incidents/stats")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result statsEnvelope
	testutil.DecodeJSON(t, resp, &result)
	return result
}
