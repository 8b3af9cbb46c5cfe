package api

import (
	"net/url"
	"testing"
)

func TestNormalizeNutritionDottedKeys(t *testing.T) {
	form := url.Values{
		"nutrition.calories": {"150"},
		"nutrition.sugar":    {"35g"},
		"nutrition.caffeine": {"80mg"},
		"nutrition.serving":  {"500ml"},
	}

	n := normalizeNutrition(form.Get)

	if n.Calories != "150" || n.Sugar != "35g" || n.Caffeine != "80mg" || n.Serving != "500ml" {
		t.Errorf("Dotted keys not normalized: %+v", n)
	}
}

func TestNormalizeNutritionFlatKeys(t *testing.T) {
	form := url.Values{
		"calories": {"90"},
		"sugar":    {"20g"},
		"caffeine": {"0mg"},
		"serving":  {"250ml"},
	}

	n := normalizeNutrition(form.Get)

	if n.Calories != "90" || n.Sugar != "20g" || n.Caffeine != "0mg" || n.Serving != "250ml" {
		t.Errorf("Flat keys not normalized: %+v", n)
	}
}

func TestNormalizeNutritionDottedWins(t *testing.T) {
	form := url.Values{
		"nutrition.calories": {"150"},
		"calories":           {"999"},
		"sugar":              {"10g"},
	}

	n := normalizeNutrition(form.Get)

	if n.Calories != "150" {
		t.Errorf("Expected dotted key to win, got %q", n.Calories)
	}
	if n.Sugar != "10g" {
		t.Errorf("Expected flat fallback, got %q", n.Sugar)
	}
	if n.Complete() {
		t.Error("Partial nutrition should not be complete")
	}
}
