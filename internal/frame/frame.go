// Package frame runs group-by aggregations over in-memory columns with gota
// dataframes.
package frame

import (
	"fmt"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	apperrors "github.com/spigell/greenskills/internal/errors"
)

const keyColumn = "key"

func valueColumn(i int) string {
	return fmt.Sprintf("v%d", i)
}

// SumBy groups rows by key and sums every value column. The result maps each
// key to its sums in column order; the returned keys are in first-seen order.
func SumBy(keys []string, columns [][]float64) (map[string][]float64, []string, error) {
	var order []string
	seen := make(map[string]bool, len(keys))
	for _, k := range keys {
		if !seen[k] {
			seen[k] = true
			order = append(order, k)
		}
	}
	if len(keys) == 0 || len(columns) == 0 {
		return map[string][]float64{}, order, nil
	}

	list := []series.Series{series.New(keys, series.String, keyColumn)}
	names := make([]string, len(columns))
	aggs := make([]dataframe.AggregationType, len(columns))
	for i, values := range columns {
		if len(values) != len(keys) {
			return nil, nil, apperrors.Internal(fmt.Sprintf("column %d has %d values for %d keys", i, len(values), len(keys)), nil)
		}
		names[i] = valueColumn(i)
		aggs[i] = dataframe.Aggregation_SUM
		list = append(list, series.New(values, series.Float, names[i]))
	}

	df := dataframe.New(list...)
	if df.Err != nil {
		return nil, nil, apperrors.Internal("building a dataframe", df.Err)
	}
	grouped := df.GroupBy(keyColumn)
	if grouped.Err != nil {
		return nil, nil, apperrors.Internal("grouping rows", grouped.Err)
	}
	agg := grouped.Aggregation(aggs, names)
	if agg.Err != nil {
		return nil, nil, apperrors.Internal("summing groups", agg.Err)
	}

	sumColumns := make([][]float64, len(names))
	for i, name := range names {
		col, err := aggregated(agg, name, aggs[i])
		if err != nil {
			return nil, nil, err
		}
		sumColumns[i] = agg.Col(col).Float()
	}

	result := make(map[string][]float64, agg.Nrow())
	for r, k := range agg.Col(keyColumn).Records() {
		sums := make([]float64, len(names))
		for i := range names {
			sums[i] = sumColumns[i][r]
		}
		result[k] = sums
	}
	for _, k := range order {
		if _, ok := result[k]; !ok {
			return nil, nil, apperrors.Internal(fmt.Sprintf("group %q lost in aggregation", k), nil)
		}
	}
	return result, order, nil
}

// aggregated finds the column gota named for an aggregation of name.
func aggregated(df dataframe.DataFrame, name string, typ dataframe.AggregationType) (string, error) {
	want := fmt.Sprintf("%s_%s", name, typ)
	for _, n := range df.Names() {
		if n == want {
			return n, nil
		}
	}
	for _, n := range df.Names() {
		if strings.HasPrefix(n, name+"_") {
			return n, nil
		}
	}
	return "", apperrors.Internal(fmt.Sprintf("aggregated column for %q not found", name), nil)
}
