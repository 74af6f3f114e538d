package catalogs

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_RepoConfigs(t *testing.T) {
	cats, err := Load("../../../configs")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cats.Items.PaletteDigest == "" || cats.Structures.Digest == "" || cats.Recipes.Digest == "" {
		t.Fatalf("missing digests")
	}
	asm, ok := cats.Structures.Defs["ASSEMBLER"]
	if !ok || asm.Size != [2]int{2, 2} || asm.Power != PowerElectric {
		t.Fatalf("assembler def=%+v", asm)
	}
	if !cats.Structures.Defs["ELECTRIC_POLE"].PowerSource() || !cats.Structures.Defs["ELECTRIC_POLE"].PowerSink() {
		t.Fatalf("pole should be source and sink")
	}
	if cats.Structures.Defs["INSERTER"].Reach() != DefaultWireReach {
		t.Fatalf("default reach")
	}
	gear := cats.Recipes.ByID["GEAR"]
	if gear.DurationSec != 1 || gear.Inputs[0].Count != 2 {
		t.Fatalf("gear recipe=%+v", gear)
	}
	if !cats.Items.IsFuel("COAL") || cats.Items.IsFuel("IRON_ORE") {
		t.Fatalf("fuel flags wrong")
	}
	furnace := cats.Recipes.ForStation("FURNACE")
	for i := 1; i < len(furnace); i++ {
		if furnace[i-1] > furnace[i] {
			t.Fatalf("ForStation not sorted: %v", furnace)
		}
	}
}

func TestLoad_RejectsUnknownCostItem(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) {
		t.Helper()
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	write("items.json", `[{"id":"CHEST","kind":"STRUCTURE","place_as":"CHEST"}]`)
	write("structures.json", `[{"id":"CHEST","behavior":"CHEST","size":[1,1],"cost":[{"item":"WOOD","count":1}]}]`)
	write("recipes.json", `[]`)

	if _, err := Load(dir); err == nil {
		t.Fatalf("expected unknown item error")
	}
}
