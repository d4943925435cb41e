//go:build integration

package integration

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/actworks/control-tower/internal/domain"
	"github.com/actworks/control-tower/internal/testutil"
)

type userEnvelope struct {
	Data domain.User `json:"data"`
}

type userListEnvelope struct {
	Data []domain.User `json:"data"`
}

type incidentEnvelope struct {
	Data domain.Incident `json:"data"`
}

type incidentListEnvelope struct {
	Data []domain.Incident `json:"data"`
}

type statsEnvelope struct {
	Data struct {
		Total        int `json:"total"`
		New          int `json:"new"`
		Acknowledged int `json:"acknowledged"`
		InProgress   int `json:"in_progress"`
		Resolved     int `json:"resolved"`
		Closed       int `json:"closed"`
		Overdue      int `json:"overdue"`
	} `json:"data"`
}

type insightsEnvelope struct {
	Data []struct {
		Title          string  `json:"title"`
		Detail         string  `json:"detail"`
		Recommendation string  `json:"recommendation"`
		Confidence     float64 `json:"confidence"`
	} `json:"data"`
}

// createUser provisions a directory user through the admin API and returns it.
// The admin client must already be logged in.
func createUser(t *testing.T, admin *testutil.Client, group string) (domain.User, string) {
	t.Helper()

	email := testutil.RandomEmail()
	password := "password123"

	resp, err := admin.POST("/api/v1/users", map[string]string{
		"name":       testutil.RandomName("User"),
		"email":      email,
		"password":   password,
		"department": "Operations",
		"group":      group,
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var result userEnvelope
	testutil.DecodeJSON(t, resp, &result)
	return result.Data, password
}

// loginAs creates a fresh client logged in as the given user.
func loginAs(t *testing.T, email, password string) *testutil.Client {
	t.Helper()
	client := newTestClient(t)
	client.LoginAs(t, email, password)
	return client
}

// reportIncident files an incident through the API and returns it.
func reportIncident(t *testing.T, client *testutil.Client, priority, alertType, location string) domain.Incident {
	t.Helper()

	resp, err := client.POST("/api/v1/incidents", map[string]string{
		"title":       testutil.RandomName("Incident"),
		"description": "integration test incident",
		"location":    location,
		"alert_type":  alertType,
		"priority":    priority,
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var result incidentEnvelope
	testutil.DecodeJSON(t, resp, &result)
	return result.Data
}

// setStatus transitions an incident and returns the updated copy.
func setStatus(t *testing.T, client *testutil.Client, id string, status domain.IncidentStatus) domain.Incident {
	t.Helper()

	resp, err := client.POST("/api/v1/incidents/"+id+"/status", map[string]string{
		"status": string(status),
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result incidentEnvelope
	testutil.DecodeJSON(t, resp, &result)
	return result.Data
}

// getIncident fetches a single incident.
func getIncident(t *testing.T, client *testutil.Client, id string) domain.Incident {
	t.Helper()

	resp, err := client.GET("/api/v1/incidents/" + id)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result incidentEnvelope
	testutil.DecodeJSON(t, resp, &result)
	return result.Data
}
