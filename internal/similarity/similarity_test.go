package similarity

import "testing"

const essayA = `The Ottoman Empire reached its peak in the sixteenth century
under Suleiman the Magnificent, expanding across three continents and
establishing a sophisticated administrative system.`

const essayB = `The Ottoman Empire reached its peak in the sixteenth century
under Suleiman the Magnificent, expanding across three continents and
establishing a sophisticated administrative system with minor changes.`

const essayC = `Photosynthesis converts light energy into chemical energy in
plants, producing glucose and oxygen from carbon dioxide and water inside
the chloroplasts of leaf cells.`

func TestPairScoreIdenticalTexts(t *testing.T) {
	a := Item{ID: "1", Name: "a", Text: essayA}
	b := Item{ID: "2", Name: "b", Text: essayA}

	p := PairScore(a, b)
	if p.Combined != 100 {
		t.Errorf("Combined = %v, want 100 for identical texts", p.Combined)
	}
	if p.TokenSetRatio != 100 {
		t.Errorf("TokenSetRatio = %v, want 100", p.TokenSetRatio)
	}
	if p.Jaccard3gram != 100 {
		t.Errorf("Jaccard3gram = %v, want 100", p.Jaccard3gram)
	}
}

func TestPairScoreSymmetry(t *testing.T) {
	a := Item{ID: "1", Name: "a", Text: essayA}
	b := Item{ID: "2", Name: "b", Text: essayB}

	ab := PairScore(a, b)
	ba := PairScore(b, a)
	if ab.Combined != ba.Combined {
		t.Errorf("Combined not symmetric: %v vs %v", ab.Combined, ba.Combined)
	}
	if ab.Jaccard3gram != ba.Jaccard3gram {
		t.Errorf("Jaccard not symmetric: %v vs %v", ab.Jaccard3gram, ba.Jaccard3gram)
	}
}

func TestPairScoreBounds(t *testing.T) {
	items := []Item{
		{ID: "1", Text: essayA},
		{ID: "2", Text: essayB},
		{ID: "3", Text: essayC},
		{ID: "4", Text: ""},
	}
	for i := 0; i < len(items); i++ {
		for j := i + 1; j < len(items); j++ {
			p := PairScore(items[i], items[j])
			if p.Combined < 0 || p.Combined > 100 {
				t.Errorf("Combined(%s,%s) = %v, out of [0,100]", items[i].ID, items[j].ID, p.Combined)
			}
		}
	}
}

func TestPairScoreEmptyTexts(t *testing.T) {
	p := PairScore(Item{ID: "1"}, Item{ID: "2"})
	if p.Jaccard3gram != 0 {
		t.Errorf("Jaccard3gram = %v, want 0 for two empty texts", p.Jaccard3gram)
	}
}

func TestFindSimilarThresholdAndOrder(t *testing.T) {
	items := []Item{
		{ID: "1", Name: "Ahmet", Text: essayA},
		{ID: "2", Name: "Mehmet", Text: essayA},
		{ID: "3", Name: "Ayşe", Text: essayB},
		{ID: "4", Name: "Fatma", Text: essayC},
	}

	pairs := FindSimilar(items, 80)
	if len(pairs) == 0 {
		t.Fatal("expected at least the identical pair above threshold")
	}
	for _, p := range pairs {
		if p.Combined < 80 {
			t.Errorf("pair %s/%s below threshold: %v", p.NameA, p.NameB, p.Combined)
		}
		if p.IDA == "4" || p.IDB == "4" {
			t.Errorf("unrelated essay flagged: %s/%s at %v", p.NameA, p.NameB, p.Combined)
		}
	}
	for i := 1; i < len(pairs); i++ {
		if pairs[i].Combined > pairs[i-1].Combined {
			t.Errorf("pairs not sorted descending at index %d", i)
		}
	}
	if pairs[0].IDA != "1" || pairs[0].IDB != "2" {
		t.Errorf("top pair = %s/%s, want the identical pair 1/2", pairs[0].IDA, pairs[0].IDB)
	}
}

func TestFindSimilarNoItems(t *testing.T) {
	if got := FindSimilar(nil, 80); len(got) != 0 {
		t.Errorf("expected no pairs, got %d", len(got))
	}
	if got := FindSimilar([]Item{{ID: "1", Text: essayA}}, 80); len(got) != 0 {
		t.Errorf("single item cannot pair, got %d", len(got))
	}
}

func TestShinglesShortText(t *testing.T) {
	set := shingles("iki kelime")
	if len(set) != 2 {
		t.Errorf("short text should degenerate to its token set, got %d entries", len(set))
	}
	if _, ok := set["iki"]; !ok {
		t.Error("missing raw token in degenerate set")
	}
}
