// Package compressor shrinks the dense action and goto tables. Identical rows are stored once,
// and the remaining rows are overlaid with row displacement.
package compressor

import (
	"encoding/binary"
	"fmt"
	"sort"

	spec "github.com/nihei9/lalrgen/spec/grammar"
)

type OriginalTable struct {
	entries  []int
	rowCount int
	colCount int
}

func NewOriginalTable(entries []int, colCount int) (*OriginalTable, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("enries is empty")
	}
	if colCount <= 0 {
		return nil, fmt.Errorf("colCount must be >=1")
	}
	if len(entries)%colCount != 0 {
		return nil, fmt.Errorf("entries length or column count are incorrect; entries length: %v, column count: %v", len(entries), colCount)
	}

	return &OriginalTable{
		entries:  entries,
		rowCount: len(entries) / colCount,
		colCount: colCount,
	}, nil
}

func (t *OriginalTable) row(r int) []int {
	return t.entries[r*t.colCount : (r+1)*t.colCount]
}

// Compress stores each distinct row of a table once and overlays the distinct rows. Cells
// holding emptyValue are not stored.
func Compress(entries []int, colCount int, emptyValue int) (*spec.UniqueEntriesTable, error) {
	orig, err := NewOriginalTable(entries, colCount)
	if err != nil {
		return nil, err
	}
	unique, rowNums := UniqueRows(orig)
	return &spec.UniqueEntriesTable{
		UniqueEntries:    Displace(unique, emptyValue),
		RowNums:          rowNums,
		OriginalRowCount: orig.rowCount,
		OriginalColCount: orig.colCount,
	}, nil
}

// UniqueRows returns the distinct rows of a table in order of first appearance, and for each
// original row the number of its distinct row.
func UniqueRows(orig *OriginalTable) (*OriginalTable, []int) {
	var uniqueEntries []int
	rowNums := make([]int, orig.rowCount)
	key2RowNum := map[string]int{}
	buf := make([]byte, 0, orig.colCount*binary.MaxVarintLen64)
	for row := 0; row < orig.rowCount; row++ {
		buf = buf[:0]
		for _, v := range orig.row(row) {
			buf = binary.AppendVarint(buf, int64(v))
		}
		key := string(buf)

		rowNum, ok := key2RowNum[key]
		if !ok {
			rowNum = len(key2RowNum)
			key2RowNum[key] = rowNum
			uniqueEntries = append(uniqueEntries, orig.row(row)...)
		}
		rowNums[row] = rowNum
	}

	return &OriginalTable{
		entries:  uniqueEntries,
		rowCount: len(key2RowNum),
		colCount: orig.colCount,
	}, rowNums
}

const ForbiddenValue = -1

type rowInfo struct {
	rowNum      int
	nonEmptyCol []int
}

// Displace overlays the rows of a table onto one array. Denser rows are placed first, each at
// the lowest displacement, not below the previous one, where none of its non-empty cells
// collide with an occupied slot.
func Displace(orig *OriginalTable, emptyValue int) *spec.RowDisplacementTable {
	rows := make([]rowInfo, orig.rowCount)
	for row := 0; row < orig.rowCount; row++ {
		rows[row].rowNum = row
		for col, v := range orig.row(row) {
			if v == emptyValue {
				continue
			}
			rows[row].nonEmptyCol = append(rows[row].nonEmptyCol, col)
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return len(rows[i].nonEmptyCol) > len(rows[j].nonEmptyCol)
	})

	var entries []int
	var bounds []int
	grow := func(size int) {
		for len(entries) < size {
			entries = append(entries, emptyValue)
			bounds = append(bounds, ForbiddenValue)
		}
	}

	rowDisplacement := make([]int, orig.rowCount)
	nextRowDisplacement := 0
	for _, r := range rows {
		if len(r.nonEmptyCol) == 0 {
			continue
		}

		for {
			grow(nextRowDisplacement + orig.colCount)
			overlapped := false
			for _, col := range r.nonEmptyCol {
				if bounds[nextRowDisplacement+col] != ForbiddenValue {
					overlapped = true
					break
				}
			}
			if !overlapped {
				break
			}
			nextRowDisplacement++
		}

		rowDisplacement[r.rowNum] = nextRowDisplacement
		for _, col := range r.nonEmptyCol {
			entries[nextRowDisplacement+col] = orig.entries[r.rowNum*orig.colCount+col]
			bounds[nextRowDisplacement+col] = r.rowNum
		}
		nextRowDisplacement++
	}

	// Trim the trailing slots no row owns.
	bottom := len(bounds)
	for bottom > 0 && bounds[bottom-1] == ForbiddenValue {
		bottom--
	}

	return &spec.RowDisplacementTable{
		OriginalRowCount: orig.rowCount,
		OriginalColCount: orig.colCount,
		EmptyValue:       emptyValue,
		Entries:          entries[:bottom],
		Bounds:           bounds[:bottom],
		RowDisplacement:  rowDisplacement,
	}
}
