package analysis

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/dataclean-cli/internal/dataset"
)

func rpeData() *dataset.Dataset {
	return dataset.MustNew(
		dataset.NewNumeric("a", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, nil),
		dataset.NewNumeric("b", []float64{1, 2, 3, 4, 5, 6, 7, 8, 10, 9}, nil),
		dataset.NewCategorical("label", []string{"x", "y", "x", "y", "x", "y", "x", "y", "x", "y"}, nil),
		dataset.NewNumeric("c", []float64{2, 1, 4, 3, 6, 5, 8, 7, 10, 9}, nil),
		dataset.NewNumeric("d", []float64{3, 1, 2, 5, 4, 7, 6, 10, 8, 9}, nil),
		dataset.NewNumeric("e", []float64{5, 3, 9, 1, 7, 2, 10, 4, 8, 6}, nil),
	)
}

func TestFindCorrelatedRemovalOrder(t *testing.T) {
	d := rpeData()
	res, err := FindCorrelated(d, 0.9, "pearson")
	require.NoError(t, err)
	require.Equal(t, []string{"b", "c", "a"}, res.Dropped)

	res, err = FindCorrelated(d, 0.95, "pearson")
	require.NoError(t, err)
	require.Equal(t, []string{"b"}, res.Dropped)
}

func TestFindCorrelatedIsIdempotent(t *testing.T) {
	for _, d := range []*dataset.Dataset{rpeData(), newFixture()} {
		for _, method := range []string{"pearson", "spearman", "kendall"} {
			first, err := FindCorrelated(d, 0.9, method)
			require.NoError(t, err)
			again, err := FindCorrelated(d.Drop(first.Dropped...), 0.9, method)
			require.NoError(t, err)
			require.False(t, again.Found(), "method %s dropped %v on second pass", method, again.Dropped)
		}
	}
}

func TestFindCorrelatedFixtureCluster(t *testing.T) {
	res, err := FindCorrelated(newFixture(), 0.9, "pearson")
	require.NoError(t, err)
	require.Len(t, res.Dropped, 3)
	cluster := []string{"id", "member_id", "id_na", "duplicated_column"}
	for _, n := range res.Dropped {
		require.Contains(t, cluster, n)
	}
}

func TestFindCorrelatedErrors(t *testing.T) {
	d := rpeData()
	var cfg *InvalidConfigurationError
	_, err := FindCorrelated(d, 0.9, "distance")
	require.True(t, errors.As(err, &cfg))
	_, err = FindCorrelated(d, 1.5, "pearson")
	require.True(t, errors.As(err, &cfg))

	var kind *InvalidColumnKindError
	_, err = FindCorrelatedColumns(d, 0.9, "pearson", "a", "label")
	require.True(t, errors.As(err, &kind))
	require.Equal(t, "label", kind.Column)
}

func TestCorrelationsTopPairs(t *testing.T) {
	m, err := Correlations(rpeData(), "pearson")
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b", "c", "d", "e"}, m.Columns)
	top := m.TopPairs(1)
	require.Len(t, top, 1)
	require.Equal(t, "a", top[0].A)
	require.Equal(t, "b", top[0].B)
}

func TestOutliersFlagPlantedRows(t *testing.T) {
	d := newFixture()
	rep, err := Outliers(d, OutlierOptions{Columns: []string{"outlier"}})
	require.NoError(t, err)
	require.Len(t, rep.Tables, 1)
	tab := rep.Tables[0]
	for _, r := range []int{1, 10, 100} {
		require.True(t, tab.IsOutlier[r], "row %d", r)
		require.True(t, tab.Flags[ScoreZ][r], "row %d", r)
	}
	require.Equal(t, []string{"outlier_z", "outlier_iqr", "outlier_mad", "outlier_is_outlier"}, tab.Headers())
	require.True(t, rep.Found())
}

func TestOutlierFlagIsOrOfScores(t *testing.T) {
	d := newFixture()
	subsets := [][]string{{ScoreZ}, {ScoreIQR}, {ScoreMAD}, {ScoreZ, ScoreMAD}, {ScoreIQR, ScoreMAD}, nil}
	for _, s := range subsets {
		rep, err := Outliers(d, OutlierOptions{Scores: s, Columns: []string{"outlier", "id", "numeric_variable_fillna"}})
		require.NoError(t, err)
		for _, tab := range rep.Tables {
			for i := range tab.IsOutlier {
				want := false
				for _, name := range tab.ScoreNames() {
					want = want || tab.Flags[name][i]
				}
				require.Equal(t, want, tab.IsOutlier[i], "column %s row %d scores %v", tab.Column, i, s)
			}
		}
	}
}

func TestOutliersMissingRowsScoreNaN(t *testing.T) {
	rep, err := Outliers(newFixture(), OutlierOptions{Scores: []string{ScoreZ}, Columns: []string{"id_na"}})
	require.NoError(t, err)
	tab := rep.Tables[0]
	require.True(t, math.IsNaN(tab.Scores[ScoreZ][2]))
	require.False(t, tab.IsOutlier[2])
	require.False(t, math.IsNaN(tab.Scores[ScoreZ][0]))
}

func TestOutliersDegenerateColumnsAreScoped(t *testing.T) {
	rep, err := Outliers(newFixture(), OutlierOptions{Columns: []string{"num_variable", "outlier", "na_col"}})
	require.NoError(t, err)
	require.Len(t, rep.Tables, 1)
	require.Equal(t, "outlier", rep.Tables[0].Column)
	var deg *DegenerateDistributionError
	require.True(t, errors.As(rep.Errors["num_variable"], &deg))
	require.Equal(t, "num_variable", deg.Column)
	require.True(t, errors.As(rep.Errors["na_col"], &deg))
	require.Equal(t, "present value count", deg.Stat)
}

func TestOutliersConfigurationErrors(t *testing.T) {
	d := newFixture()
	var cfg *InvalidConfigurationError
	_, err := Outliers(d, OutlierOptions{Scores: []string{"grubbs"}})
	require.True(t, errors.As(err, &cfg))
	_, err = Outliers(d, OutlierOptions{Cutoffs: map[string]float64{ScoreZ: -1}})
	require.True(t, errors.As(err, &cfg))

	var kind *InvalidColumnKindError
	_, err = Outliers(d, OutlierOptions{Columns: []string{"constant_col"}})
	require.True(t, errors.As(err, &kind))
}

func TestOutlierReportDataset(t *testing.T) {
	rep, err := Outliers(newFixture(), OutlierOptions{Scores: []string{ScoreMAD}, Columns: []string{"outlier"}})
	require.NoError(t, err)
	out, err := rep.Dataset()
	require.NoError(t, err)
	require.Equal(t, []string{"outlier_mad", "outlier_is_outlier"}, out.Names())
	flag, _ := out.Column("outlier_is_outlier")
	require.Equal(t, 1.0, flag.Num[1])
}

func TestNegativeCounts(t *testing.T) {
	d := dataset.MustNew(
		dataset.NumericFromPtrs("x", []*float64{fp(-1), nil, fp(2), fp(-3)}),
		dataset.NewCategorical("s", []string{"-1", "a", "b", "c"}, nil),
	)
	require.Equal(t, map[string]int{"x": 2}, NegativeCounts(d))
}

func TestFillNA(t *testing.T) {
	d := newFixture()
	res, err := FillNA(d, "numeric_variable_fillna", FillAuto, "")
	require.NoError(t, err)
	c, _ := res.Data.Column("numeric_variable_fillna")
	require.Zero(t, c.MissingCount())
	require.Equal(t, 2.0, c.Num[900])

	res, err = FillNA(d, "character_variable_fillna", FillAuto, "")
	require.NoError(t, err)
	c, _ = res.Data.Column("character_variable_fillna")
	require.Equal(t, "A", c.Str[999])

	res, err = FillNA(d, "numeric_variable_fillna", FillMedian, "")
	require.NoError(t, err)
	c, _ = res.Data.Column("numeric_variable_fillna")
	require.Equal(t, 2.0, c.Num[900])

	res, err = FillNA(d, "na_col", FillAuto, "")
	require.NoError(t, err)
	require.Equal(t, []string{"na_col"}, res.Skipped)
	require.Same(t, d, res.Data)

	res, err = FillNA(d, "na_col", FillConstant, "-1")
	require.NoError(t, err)
	c, _ = res.Data.Column("na_col")
	require.Equal(t, -1.0, c.Num[0])

	var kind *InvalidColumnKindError
	_, err = FillNA(d, "character_variable_fillna", FillMean, "")
	require.True(t, errors.As(err, &kind))
	_, err = FillNA(d, "na_col", FillConstant, "abc")
	var cfg *InvalidConfigurationError
	require.True(t, errors.As(err, &cfg))

	c, _ = d.Column("numeric_variable_fillna")
	require.Equal(t, 200, c.MissingCount(), "source dataset is untouched")
}

func TestFillModeTieGoesToFirstSeen(t *testing.T) {
	d := dataset.MustNew(dataset.CategoricalFromPtrs("s", []*string{sp("b"), sp("a"), sp("a"), sp("b"), nil}))
	res, err := FillNA(d, "s", FillMode, "")
	require.NoError(t, err)
	c, _ := res.Data.Column("s")
	require.Equal(t, "b", c.Str[4])
}

func TestFillLowNA(t *testing.T) {
	d := newFixture()
	res, err := FillLowNA(d, nil, 0.25)
	require.NoError(t, err)
	require.Equal(t, []string{"id_na", "numeric_variable_fillna"}, res.Filled)

	res, err = FillLowNA(d, []string{"character_variable_fillna", "na_col"}, 0)
	require.NoError(t, err)
	require.Equal(t, []string{"character_variable_fillna"}, res.Filled)
	require.Equal(t, []string{"na_col"}, res.Skipped)
}

func TestToDummyIndicatorsSumToOne(t *testing.T) {
	d := newFixture()
	res, err := ToDummy(d, DummyOptions{Subset: []string{"character_variable_fillna"}, LevelsLimit: 30, IncludeNA: true, Policy: PolicyKeep})
	require.NoError(t, err)
	require.Equal(t, []string{"character_variable_fillna"}, res.Encoded)
	names := []string{"character_variable_fillna_A", "character_variable_fillna_B", "character_variable_fillna_C", "character_variable_fillna_nan"}
	for r := 0; r < d.Rows(); r++ {
		var sum float64
		for _, n := range names {
			c, ok := res.Data.Column(n)
			require.True(t, ok, n)
			sum += c.Num[r]
		}
		require.Equal(t, 1.0, sum, "row %d", r)
	}
	_, stillThere := res.Data.Column("character_variable_fillna")
	require.False(t, stillThere)
	require.Equal(t, d.Index("character_variable_fillna"), res.Data.Index("character_variable_fillna_A"))
}

func TestToDummyLevelsLimit(t *testing.T) {
	d := newFixture()
	res, err := ToDummy(d, DummyOptions{Auto: true, Subset: []string{"character_variable"}, LevelsLimit: 10, IncludeNA: false, Policy: PolicyDrop})
	require.NoError(t, err)
	require.Equal(t, []string{"character_variable"}, res.Dropped)
	require.ElementsMatch(t, []string{"constant_col", "character_factor", "nearzerovar_variable", "character_variable_fillna"}, res.Encoded)
	require.Empty(t, res.NonNumeric)
	_, ok := res.Data.Column("character_variable_fillna_nan")
	require.False(t, ok)

	res, err = ToDummy(d, DummyOptions{Subset: []string{"character_variable"}, LevelsLimit: 10, Policy: PolicyKeep})
	require.NoError(t, err)
	require.Equal(t, []string{"character_variable"}, res.Untouched)
	require.Contains(t, res.NonNumeric, "character_variable")

	var kind *InvalidColumnKindError
	_, err = ToDummy(d, DummyOptions{Subset: []string{"id"}, LevelsLimit: 10, Policy: PolicyKeep})
	require.True(t, errors.As(err, &kind))
}

func TestToDummyLevelNamedLikeMissingIndicator(t *testing.T) {
	d := dataset.MustNew(
		dataset.CategoricalFromPtrs("cat", []*string{sp("nan"), sp("a"), nil, sp("a")}),
		dataset.NewNumeric("cat_a", []float64{1, 2, 3, 4}, nil),
	)
	res, err := ToDummy(d, DummyOptions{Subset: []string{"cat"}, LevelsLimit: 10, IncludeNA: true, Policy: PolicyKeep})
	require.NoError(t, err)
	require.Equal(t, []string{"cat_nan__2", "cat_a__2", "cat_nan", "cat_a"}, res.Data.Names())

	na, _ := res.Data.Column("cat_nan")
	require.Equal(t, []float64{0, 0, 1, 0}, na.Num)
	level, _ := res.Data.Column("cat_nan__2")
	require.Equal(t, []float64{1, 0, 0, 0}, level.Num)
}

func TestBasicCleaning(t *testing.T) {
	d := newFixture()
	res, err := BasicCleaning(d, rand.New(rand.NewSource(1)), CleaningOptions{ManyMissing: 0.7, DropConstant: true, DropColumns: []string{"outlier", "na_col"}})
	require.NoError(t, err)
	require.Equal(t, []string{"na_col", "many_missing_70", "constant_col", "constant_col_num", "num_variable", "outlier"}, res.Removed)
	require.Equal(t, d.NumCols()-6, res.Data.NumCols())
	require.Equal(t, d.Rows(), res.Data.Rows())

	_, err = BasicCleaning(d, rand.New(rand.NewSource(1)), CleaningOptions{DropColumns: []string{"nope"}})
	require.Error(t, err)
}

func TestMaxStringLen(t *testing.T) {
	d := dataset.MustNew(
		dataset.CategoricalFromPtrs("s", []*string{sp("héllo"), nil, sp("hi")}),
		dataset.NewNumeric("n", []float64{1, 2, 3}, nil),
	)
	require.Equal(t, map[string]int{"s": 5}, MaxStringLen(d))
	require.Equal(t, []string{"s"}, BigStringColumns(d, 4))
	require.Empty(t, BigStringColumns(d, 5))
}

func TestMergeImportance(t *testing.T) {
	scores := map[string]map[string]float64{
		"rf":    {"a": 0.5, "b": 0.3, "c": 0.2},
		"kbest": {"a": 10, "c": 3},
	}
	tab := MergeImportance([]string{"a", "b", "c"}, scores, EliminationResult{Dropped: []string{"c"}})
	require.Equal(t, []string{"kbest", "rf"}, tab.Methods)
	require.Len(t, tab.Rows, 2, "b lacks a kbest score")
	require.True(t, tab.Rows[0].RPE)
	require.False(t, tab.Rows[1].RPE)
	require.Equal(t, 3.0, tab.Rows[1].Scores["kbest"])

	out, err := tab.Dataset()
	require.NoError(t, err)
	require.Equal(t, []string{"predictor", "kbest", "rf", "rpe"}, out.Names())
}
