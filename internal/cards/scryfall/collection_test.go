package scryfall

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClient_FetchCollection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Expected POST method, got %s", r.Method)
		}
		if r.URL.Path != "/cards/collection" {
			t.Errorf("Unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("Expected Content-Type application/json, got %s", r.Header.Get("Content-Type"))
		}

		var req CollectionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("Failed to decode request body: %v", err)
		}
		if len(req.Identifiers) != 3 {
			t.Errorf("Expected 3 identifiers, got %d", len(req.Identifiers))
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(CollectionResponse{
			Object: "list",
			Data: []Card{
				{ID: "id1", Name: "Lightning Bolt", SetCode: "m21", CollectorNumber: "152"},
				{ID: "id2", Name: "Counterspell"},
			},
			NotFound: []CardIdentifier{{Name: "Nonexistent Card"}},
		})
	}))
	defer server.Close()

	cards, notFound, err := newTestClient(server.URL).FetchCollection(context.Background(), []CardIdentifier{
		{Set: "m21", CollectorNumber: "152"},
		{Name: "Counterspell"},
		{Name: "Nonexistent Card"},
	})
	if err != nil {
		t.Fatalf("FetchCollection failed: %v", err)
	}

	if len(cards) != 2 {
		t.Fatalf("Expected 2 cards, got %d", len(cards))
	}
	if cards[0].Name != "Lightning Bolt" {
		t.Errorf("Expected Lightning Bolt, got %s", cards[0].Name)
	}
	if len(notFound) != 1 || notFound[0].Name != "Nonexistent Card" {
		t.Errorf("Unexpected not found list: %v", notFound)
	}
}

func TestClient_FetchCollection_Limits(t *testing.T) {
	client := NewClient(Options{BaseURL: "http://127.0.0.1:0"})
	ctx := context.Background()

	cards, notFound, err := client.FetchCollection(ctx, nil)
	if err != nil {
		t.Fatalf("Expected no error for empty input, got: %v", err)
	}
	if len(cards) != 0 || len(notFound) != 0 {
		t.Errorf("Expected empty results, got %d cards, %d not found", len(cards), len(notFound))
	}

	tooMany := make([]CardIdentifier, MaxBatchSize+1)
	if _, _, err := client.FetchCollection(ctx, tooMany); err == nil {
		t.Error("Expected error for oversized batch")
	}
}

func TestCardIdentifier_OmitsEmptyFields(t *testing.T) {
	data, err := json.Marshal(CardIdentifier{Set: "neo", CollectorNumber: "123"})
	if err != nil {
		t.Fatalf("Failed to marshal: %v", err)
	}
	if string(data) != `{"set":"neo","collector_number":"123"}` {
		t.Errorf("Unexpected JSON: %s", data)
	}
}

func TestCard_FaceNames(t *testing.T) {
	card := Card{
		Name: "Fire // Ice",
		CardFaces: []CardFace{
			{Name: "Fire", ImageURIs: &ImageURIs{Normal: "front.jpg"}},
			{Name: "Ice"},
		},
	}

	faces := card.FaceNames()
	if len(faces) != 2 || faces[0] != "Fire" || faces[1] != "Ice" {
		t.Errorf("Unexpected faces: %v", faces)
	}
	if card.ImageURI() != "front.jpg" {
		t.Errorf("Expected front face image, got %q", card.ImageURI())
	}
	if (Card{Name: "Sol Ring"}).FaceNames() != nil {
		t.Error("Expected nil faces for single-faced card")
	}
}
