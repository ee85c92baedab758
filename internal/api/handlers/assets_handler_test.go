// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2025-2026 indiecraft contributors
// https://github.com/Kalfadda/indiecraft

package handlers_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Kalfadda/indiecraft/internal/models"
)

func seedAsset(t *testing.T, s *testSuite, a *models.Asset) *models.Asset {
	t.Helper()
	if a.Phase == "" {
		a.Phase = models.AssetPhaseConcept
	}
	if a.Priority == "" {
		a.Priority = models.AssetPriorityNormal
	}
	if err := s.assets.Create(context.Background(), a); err != nil {
		t.Fatalf("seed asset: %v", err)
	}
	return a
}

func createAssetViaAPI(t *testing.T, s *testSuite, token, body string) map[string]any {
	t.Helper()
	w := doRequest(t, s.router, http.MethodPost, "/api/v1/assets", body, token)
	assertStatus(t, w, http.StatusCreated)
	return assertJSON(t, w)
}

func addStepViaAPI(t *testing.T, s *testSuite, token, assetID, body string) map[string]any {
	t.Helper()
	w := doRequest(t, s.router, http.MethodPost, "/api/v1/assets/"+assetID+"/steps", body, token)
	assertStatus(t, w, http.StatusCreated)
	return assertJSON(t, w)
}

func advanceStep(t *testing.T, s *testSuite, token, stepID string) *httptest.ResponseRecorder {
	t.Helper()
	return doRequest(t, s.router, http.MethodPost, "/api/v1/assets/steps/"+stepID+"/advance", "", token)
}

// ============================================================================
// Assets
// ============================================================================

func TestCreateAsset(t *testing.T) {
	s := setupTestSuite(t)

	body := createAssetViaAPI(t, s, memberToken(t),
		`{"name":"Hero Sprite","category":"art","description":"main character idle","is_shared":true}`)

	if body["name"] != "Hero Sprite" {
		t.Errorf("expected name Hero Sprite, got %v", body["name"])
	}
	if body["phase"] != "concept" {
		t.Errorf("expected default phase concept, got %v", body["phase"])
	}
	if body["priority"] != "normal" {
		t.Errorf("expected default priority normal, got %v", body["priority"])
	}
}

func TestCreateAssetInvalidCategory(t *testing.T) {
	s := setupTestSuite(t)

	w := doRequest(t, s.router, http.MethodPost, "/api/v1/assets",
		`{"name":"Odd","category":"sculpture"}`, memberToken(t))
	assertStatus(t, w, http.StatusBadRequest)
}

func TestCreateAssetViewerForbidden(t *testing.T) {
	s := setupTestSuite(t)

	w := doRequest(t, s.router, http.MethodPost, "/api/v1/assets",
		`{"name":"Nope","category":"art"}`, viewerToken(t))
	assertStatus(t, w, http.StatusForbidden)
}

func TestListAssetsFilters(t *testing.T) {
	s := setupTestSuite(t)

	seedAsset(t, s, &models.Asset{UserID: memberID, Name: "Sprite", Category: "art", Phase: "production"})
	seedAsset(t, s, &models.Asset{UserID: memberID, Name: "Theme Song", Category: "audio", Phase: "concept"})
	seedAsset(t, s, &models.Asset{UserID: adminID, Name: "Shared Script", Category: "writing", IsShared: true})
	seedAsset(t, s, &models.Asset{UserID: adminID, Name: "Hidden Draft", Category: "writing"})

	all := doRequest(t, s.router, http.MethodGet, "/api/v1/assets", "", memberToken(t))
	assertStatus(t, all, http.StatusOK)
	if got := decodeJSONList(t, all); len(got) != 3 {
		t.Fatalf("expected 3 visible assets, got %d", len(got))
	}

	art := doRequest(t, s.router, http.MethodGet, "/api/v1/assets?category=art", "", memberToken(t))
	if got := decodeJSONList(t, art); len(got) != 1 || got[0]["name"] != "Sprite" {
		t.Errorf("unexpected art filter result: %v", got)
	}

	prod := doRequest(t, s.router, http.MethodGet, "/api/v1/assets?phase=production", "", memberToken(t))
	if got := decodeJSONList(t, prod); len(got) != 1 {
		t.Errorf("expected 1 production asset, got %d", len(got))
	}
}

func TestListAssetsInvalidFilter(t *testing.T) {
	s := setupTestSuite(t)

	w := doRequest(t, s.router, http.MethodGet, "/api/v1/assets?category=minerals", "", memberToken(t))
	assertStatus(t, w, http.StatusBadRequest)
	assertErrorCode(t, w, "VALIDATION_ERROR")
}

func TestGetAssetVisibility(t *testing.T) {
	s := setupTestSuite(t)

	shared := seedAsset(t, s, &models.Asset{UserID: adminID, Name: "Shared", Category: "code", IsShared: true})
	private := seedAsset(t, s, &models.Asset{UserID: adminID, Name: "Private", Category: "code"})

	w := doRequest(t, s.router, http.MethodGet, "/api/v1/assets/"+shared.ID.String(), "", viewerToken(t))
	assertStatus(t, w, http.StatusOK)

	hidden := doRequest(t, s.router, http.MethodGet, "/api/v1/assets/"+private.ID.String(), "", viewerToken(t))
	assertStatus(t, hidden, http.StatusNotFound)
}

func TestUpdateAsset(t *testing.T) {
	s := setupTestSuite(t)

	a := seedAsset(t, s, &models.Asset{UserID: memberID, Name: "WIP", Category: "design"})

	w := doRequest(t, s.router, http.MethodPut, "/api/v1/assets/"+a.ID.String(),
		`{"phase":"review","priority":"high"}`, memberToken(t))
	assertStatus(t, w, http.StatusOK)

	body := assertJSON(t, w)
	if body["phase"] != "review" {
		t.Errorf("expected phase review, got %v", body["phase"])
	}
	if body["priority"] != "high" {
		t.Errorf("expected priority high, got %v", body["priority"])
	}
}

func TestUpdateAssetNotOwner(t *testing.T) {
	s := setupTestSuite(t)

	// Shared assets are visible team-wide but only the owner can edit them.
	a := seedAsset(t, s, &models.Asset{UserID: adminID, Name: "Team Asset", Category: "art", IsShared: true})

	w := doRequest(t, s.router, http.MethodPut, "/api/v1/assets/"+a.ID.String(),
		`{"name":"Hijacked"}`, memberToken(t))
	assertStatus(t, w, http.StatusNotFound)
}

func TestDeleteAssetCascadesSteps(t *testing.T) {
	s := setupTestSuite(t)

	a := seedAsset(t, s, &models.Asset{UserID: memberID, Name: "Doomed", Category: "audio"})
	step := addStepViaAPI(t, s, memberToken(t), a.ID.String(), `{"name":"Record"}`)

	w := doRequest(t, s.router, http.MethodDelete, "/api/v1/assets/"+a.ID.String(), "", memberToken(t))
	assertStatus(t, w, http.StatusNoContent)

	gone := advanceStep(t, s, memberToken(t), step["id"].(string))
	assertStatus(t, gone, http.StatusNotFound)
}

// ============================================================================
// Pipeline steps
// ============================================================================

func TestAddStepAutoPosition(t *testing.T) {
	s := setupTestSuite(t)

	a := seedAsset(t, s, &models.Asset{UserID: memberID, Name: "Sprite", Category: "art"})

	first := addStepViaAPI(t, s, memberToken(t), a.ID.String(), `{"name":"Sketch"}`)
	second := addStepViaAPI(t, s, memberToken(t), a.ID.String(), `{"name":"Ink"}`)

	if first["position"] != float64(1) {
		t.Errorf("expected first step at position 1, got %v", first["position"])
	}
	if second["position"] != float64(2) {
		t.Errorf("expected second step at position 2, got %v", second["position"])
	}
	if first["status"] != "ready" {
		t.Errorf("expected ready status, got %v", first["status"])
	}
}

func TestAddStepWithDependencyStartsBlocked(t *testing.T) {
	s := setupTestSuite(t)

	a := seedAsset(t, s, &models.Asset{UserID: memberID, Name: "Sprite", Category: "art"})
	first := addStepViaAPI(t, s, memberToken(t), a.ID.String(), `{"name":"Sketch"}`)

	dep := addStepViaAPI(t, s, memberToken(t), a.ID.String(),
		fmt.Sprintf(`{"name":"Color","depends_on":%q}`, first["id"]))
	if dep["status"] != "blocked" {
		t.Errorf("expected blocked status, got %v", dep["status"])
	}
}

func TestAddStepDependencyWrongAsset(t *testing.T) {
	s := setupTestSuite(t)

	a := seedAsset(t, s, &models.Asset{UserID: memberID, Name: "A", Category: "art"})
	b := seedAsset(t, s, &models.Asset{UserID: memberID, Name: "B", Category: "art"})
	foreign := addStepViaAPI(t, s, memberToken(t), b.ID.String(), `{"name":"Other"}`)

	w := doRequest(t, s.router, http.MethodPost, "/api/v1/assets/"+a.ID.String()+"/steps",
		fmt.Sprintf(`{"name":"Bad","depends_on":%q}`, foreign["id"]), memberToken(t))
	assertStatus(t, w, http.StatusBadRequest)
}

func TestAdvanceStepLifecycle(t *testing.T) {
	s := setupTestSuite(t)

	a := seedAsset(t, s, &models.Asset{UserID: memberID, Name: "Sprite", Category: "art"})
	step := addStepViaAPI(t, s, memberToken(t), a.ID.String(), `{"name":"Sketch"}`)
	id := step["id"].(string)

	w := advanceStep(t, s, memberToken(t), id)
	assertStatus(t, w, http.StatusOK)
	if body := assertJSON(t, w); body["status"] != "in_progress" {
		t.Errorf("expected in_progress, got %v", body["status"])
	}

	w = advanceStep(t, s, memberToken(t), id)
	assertStatus(t, w, http.StatusOK)
	if body := assertJSON(t, w); body["status"] != "done" {
		t.Errorf("expected done, got %v", body["status"])
	}

	// Done is terminal.
	w = advanceStep(t, s, memberToken(t), id)
	assertStatus(t, w, http.StatusBadRequest)
	assertErrorCode(t, w, "INVALID_INPUT")
}

func TestAdvanceBlockedStep(t *testing.T) {
	s := setupTestSuite(t)

	a := seedAsset(t, s, &models.Asset{UserID: memberID, Name: "Sprite", Category: "art"})
	dep := addStepViaAPI(t, s, memberToken(t), a.ID.String(), `{"name":"Sketch"}`)
	blocked := addStepViaAPI(t, s, memberToken(t), a.ID.String(),
		fmt.Sprintf(`{"name":"Color","depends_on":%q}`, dep["id"]))

	w := advanceStep(t, s, memberToken(t), blocked["id"].(string))
	assertStatus(t, w, http.StatusBadRequest)
	assertErrorCode(t, w, "INVALID_INPUT")
}

func TestFinishingStepUnblocksDependents(t *testing.T) {
	s := setupTestSuite(t)

	a := seedAsset(t, s, &models.Asset{UserID: memberID, Name: "Sprite", Category: "art"})
	dep := addStepViaAPI(t, s, memberToken(t), a.ID.String(), `{"name":"Sketch"}`)
	blocked := addStepViaAPI(t, s, memberToken(t), a.ID.String(),
		fmt.Sprintf(`{"name":"Color","depends_on":%q}`, dep["id"]))

	depID := dep["id"].(string)
	advanceStep(t, s, memberToken(t), depID)
	advanceStep(t, s, memberToken(t), depID)

	steps := doRequest(t, s.router, http.MethodGet, "/api/v1/assets/"+a.ID.String()+"/steps", "", memberToken(t))
	assertStatus(t, steps, http.StatusOK)

	for _, st := range decodeJSONList(t, steps) {
		if st["id"] == blocked["id"] && st["status"] != "ready" {
			t.Errorf("expected dependent step unblocked, got %v", st["status"])
		}
	}
}

func TestPipelineOwnerOnly(t *testing.T) {
	s := setupTestSuite(t)

	// A shared asset exposes its pipeline read-only to the rest of the team.
	a := seedAsset(t, s, &models.Asset{UserID: adminID, Name: "Shared", Category: "art", IsShared: true})
	step := addStepViaAPI(t, s, adminToken(t), a.ID.String(), `{"name":"Sketch"}`)

	list := doRequest(t, s.router, http.MethodGet, "/api/v1/assets/"+a.ID.String()+"/steps", "", memberToken(t))
	assertStatus(t, list, http.StatusOK)

	add := doRequest(t, s.router, http.MethodPost, "/api/v1/assets/"+a.ID.String()+"/steps",
		`{"name":"Sneaky"}`, memberToken(t))
	assertStatus(t, add, http.StatusForbidden)
	assertErrorCode(t, add, "FORBIDDEN")

	adv := advanceStep(t, s, memberToken(t), step["id"].(string))
	assertStatus(t, adv, http.StatusForbidden)

	del := doRequest(t, s.router, http.MethodDelete, "/api/v1/assets/steps/"+step["id"].(string), "", memberToken(t))
	assertStatus(t, del, http.StatusForbidden)
}

func TestRemoveStepWithDependents(t *testing.T) {
	s := setupTestSuite(t)

	a := seedAsset(t, s, &models.Asset{UserID: memberID, Name: "Sprite", Category: "art"})
	dep := addStepViaAPI(t, s, memberToken(t), a.ID.String(), `{"name":"Sketch"}`)
	addStepViaAPI(t, s, memberToken(t), a.ID.String(),
		fmt.Sprintf(`{"name":"Color","depends_on":%q}`, dep["id"]))

	w := doRequest(t, s.router, http.MethodDelete, "/api/v1/assets/steps/"+dep["id"].(string), "", memberToken(t))
	assertStatus(t, w, http.StatusBadRequest)
	assertErrorCode(t, w, "INVALID_INPUT")
}

func TestRemoveStep(t *testing.T) {
	s := setupTestSuite(t)

	a := seedAsset(t, s, &models.Asset{UserID: memberID, Name: "Sprite", Category: "art"})
	step := addStepViaAPI(t, s, memberToken(t), a.ID.String(), `{"name":"Sketch"}`)

	w := doRequest(t, s.router, http.MethodDelete, "/api/v1/assets/steps/"+step["id"].(string), "", memberToken(t))
	assertStatus(t, w, http.StatusNoContent)

	steps := doRequest(t, s.router, http.MethodGet, "/api/v1/assets/"+a.ID.String()+"/steps", "", memberToken(t))
	if got := decodeJSONList(t, steps); len(got) != 0 {
		t.Errorf("expected empty pipeline, got %d steps", len(got))
	}
}
