// Storyloom Recommender - Personalized Story Recommendations
// Copyright 2026 Storyloom
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/storyloom/recommender

package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordHTTPRequest(t *testing.T) {
	before := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/api/v1/recommendations/{userID}", "200"))

	RecordHTTPRequest("GET", "/api/v1/recommendations/{userID}", 200, 12*time.Millisecond)

	after := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/api/v1/recommendations/{userID}", "200"))
	if after != before+1 {
		t.Errorf("http_requests_total = %v, want %v", after, before+1)
	}
}

func TestRecordEvent(t *testing.T) {
	acceptedBefore := testutil.ToFloat64(EventsIngested.WithLabelValues("viewed"))
	rejectedBefore := testutil.ToFloat64(EventsRejected.WithLabelValues("scored"))

	RecordEvent("viewed", true)
	RecordEvent("scored", false)

	if got := testutil.ToFloat64(EventsIngested.WithLabelValues("viewed")); got != acceptedBefore+1 {
		t.Errorf("events_ingested_total{viewed} = %v, want %v", got, acceptedBefore+1)
	}
	if got := testutil.ToFloat64(EventsRejected.WithLabelValues("scored")); got != rejectedBefore+1 {
		t.Errorf("events_rejected_total{scored} = %v, want %v", got, rejectedBefore+1)
	}
}

func TestRecordCatalogueRefresh(t *testing.T) {
	successBefore := testutil.ToFloat64(CatalogueRefreshes.WithLabelValues("success"))
	failureBefore := testutil.ToFloat64(CatalogueRefreshes.WithLabelValues("failure"))

	RecordCatalogueRefresh(42, nil)
	RecordCatalogueRefresh(0, errors.New("upstream down"))

	if got := testutil.ToFloat64(CatalogueRefreshes.WithLabelValues("success")); got != successBefore+1 {
		t.Errorf("catalogue_refreshes_total{success} = %v, want %v", got, successBefore+1)
	}
	if got := testutil.ToFloat64(CatalogueRefreshes.WithLabelValues("failure")); got != failureBefore+1 {
		t.Errorf("catalogue_refreshes_total{failure} = %v, want %v", got, failureBefore+1)
	}
	if got := testutil.ToFloat64(CatalogueStories); got != 42 {
		t.Errorf("catalogue_stories = %v, want 42 (failure must not clobber)", got)
	}
}

func TestRecordPersistRun(t *testing.T) {
	successBefore := testutil.ToFloat64(PersistRuns.WithLabelValues("success"))

	RecordPersistRun(20*time.Millisecond, nil)

	if got := testutil.ToFloat64(PersistRuns.WithLabelValues("success")); got != successBefore+1 {
		t.Errorf("persist_runs_total{success} = %v, want %v", got, successBefore+1)
	}
}

func TestTrackActiveRequest(t *testing.T) {
	base := testutil.ToFloat64(HTTPActiveRequests)

	TrackActiveRequest(true)
	if got := testutil.ToFloat64(HTTPActiveRequests); got != base+1 {
		t.Errorf("http_active_requests = %v, want %v", got, base+1)
	}
	TrackActiveRequest(false)
	if got := testutil.ToFloat64(HTTPActiveRequests); got != base {
		t.Errorf("http_active_requests = %v, want %v", got, base)
	}
}
