// Package export writes listing history in JSON or CSV.
//
// The JSON exporter writes the stored listings as an array, content
// included. The CSV exporter flattens each listing into one row with the
// social posts joined by newlines, which spreadsheet tools keep inside
// the quoted cell:
//
//	exporter, err := export.New("csv")
//	if err != nil {
//		return err
//	}
//	err = exporter.Export(ctx, listings, os.Stdout)
package export
