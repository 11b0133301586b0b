// Package gen turns YAML entity descriptions into Go source.
//
// For every entity it writes one file holding the entity struct, the enum
// types of its enum columns and an init function that registers the
// mapping with schema.Register:
//
//	specs, err := load.Dir("schema")
//	if err != nil {
//		return err
//	}
//	err = gen.Generate(ctx, specs,
//		gen.WithTarget("internal/entity"),
//		gen.WithPackage("entity"),
//	)
//
// Field accessors are plain closures over struct fields, so the generated
// code needs no reflection to read or write column values.
//
// # Pipeline
//
//	load.Spec (YAML)
//	        ↓
//	   NewGraph (resolve Go names, types, association targets)
//	        ↓
//	   Render (jennifer file per entity)
//	        ↓
//	   write (goimports formatting, parallel)
//
// # Error Handling
//
// Invalid descriptions yield a *SchemaError, bad options a *ConfigError,
// and rendering or writing failures a *GenerationError. All of them match
// their sentinel with errors.Is.
package gen
