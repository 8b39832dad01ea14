package ai

import "testing"

type cypherOut struct {
	Cypher string `json:"cypher"`
}

func TestUnmarshalFlexible_StandardJSON(t *testing.T) {
	var out cypherOut
	err := UnmarshalFlexible(`{"cypher": "MATCH (i:Incident) RETURN count(i)"}`, &out)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if out.Cypher != "MATCH (i:Incident) RETURN count(i)" {
		t.Fatalf("unexpected cypher: %q", out.Cypher)
	}
}

func TestUnmarshalFlexible_DoubleEncoded(t *testing.T) {
	var out cypherOut
	err := UnmarshalFlexible(`"{\"cypher\": \"MATCH (n) RETURN n\"}"`, &out)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if out.Cypher != "MATCH (n) RETURN n" {
		t.Fatalf("unexpected cypher: %q", out.Cypher)
	}
}

func TestUnmarshalFlexible_Malformed(t *testing.T) {
	var out cypherOut
	err := UnmarshalFlexible(`{cypher: "MATCH (n) RETURN n"}`, &out)
	if err != nil {
		t.Fatalf("expected repaired parse, got %v", err)
	}
	if out.Cypher != "MATCH (n) RETURN n" {
		t.Fatalf("unexpected cypher: %q", out.Cypher)
	}
}

func TestUnmarshalFlexible_CodeFence(t *testing.T) {
	var out cypherOut
	input := "```json\n{\"cypher\": \"MATCH (p:Passage) RETURN p.text\"}\n```"
	if err := UnmarshalFlexible(input, &out); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if out.Cypher != "MATCH (p:Passage) RETURN p.text" {
		t.Fatalf("unexpected cypher: %q", out.Cypher)
	}
}

func TestStripCodeFence(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"no fence", "MATCH (n) RETURN n", "MATCH (n) RETURN n"},
		{"plain fence", "```\nMATCH (n) RETURN n\n```", "MATCH (n) RETURN n"},
		{"language fence", "```cypher\nMATCH (n) RETURN n\n```", "MATCH (n) RETURN n"},
	}

	for _, tc := range cases {
		if got := StripCodeFence(tc.input); got != tc.want {
			t.Fatalf("%s: got %q want %q", tc.name, got, tc.want)
		}
	}
}

func TestGenerateSchema(t *testing.T) {
	schema := GenerateSchema(cypherOut{})
	if schema == nil {
		t.Fatal("expected schema, got nil")
	}
}
