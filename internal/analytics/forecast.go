package analytics

import (
	"math"

	"moneta/internal/core"
)

// forecastWindow is how many trailing months feed the regression.
const forecastWindow = 6

// forecastHorizon is how many periods ahead are produced.
const forecastHorizon = 3

// ForecastPoint is one projected month.
type ForecastPoint struct {
	Period  string  `json:"period"`
	Income  float64 `json:"income"`
	Expense float64 `json:"expense"`
	Net     float64 `json:"net"`
}

// ForecastResult carries the projected periods plus the derived alerts.
// Change percentages compare the first projected period against the latest
// historical one.
type ForecastResult struct {
	Points               []ForecastPoint `json:"points"`
	NegativeBalance      bool            `json:"negativeBalance"`
	SurplusNote          bool            `json:"surplusNote"`
	IncomeChangePercent  float64         `json:"incomeChangePercent"`
	ExpenseChangePercent float64         `json:"expenseChangePercent"`
	IncomeAlert          bool            `json:"incomeAlert"`
	ExpenseAlert         bool            `json:"expenseAlert"`
}

// Forecast projects the next three months of income and expense with an
// ordinary least-squares fit over the trailing six monthly totals, each
// series fitted independently. Projections are floored at zero and rounded
// to whole currency units. Requires at least six distinct months of data.
func Forecast(transactions []core.Transaction) (*ForecastResult, bool) {
	months := monthlyTotals(transactions)
	if len(months) < minForecastPeriods {
		return nil, false
	}
	if len(months) > forecastWindow {
		months = months[len(months)-forecastWindow:]
	}

	income := make([]float64, len(months))
	expense := make([]float64, len(months))
	for i, m := range months {
		income[i] = m.Income
		expense[i] = m.Expense
	}
	incomeForecast := olsForecast(income, forecastHorizon)
	expenseForecast := olsForecast(expense, forecastHorizon)

	result := &ForecastResult{Points: make([]ForecastPoint, forecastHorizon)}
	period := months[len(months)-1].Month
	for i := 0; i < forecastHorizon; i++ {
		period = nextMonthKey(period)
		result.Points[i] = ForecastPoint{
			Period:  period,
			Income:  incomeForecast[i],
			Expense: expenseForecast[i],
			Net:     incomeForecast[i] - expenseForecast[i],
		}
	}

	latest := months[len(months)-1]
	next := result.Points[0]
	result.NegativeBalance = next.Expense > next.Income
	if currentNet := latest.Income - latest.Expense; currentNet > 0 {
		result.SurplusNote = next.Net > 0.20*currentNet
	}
	if latest.Income > 0 {
		result.IncomeChangePercent = (next.Income - latest.Income) / latest.Income * 100
		result.IncomeAlert = math.Abs(result.IncomeChangePercent) >= 15
	}
	if latest.Expense > 0 {
		result.ExpenseChangePercent = (next.Expense - latest.Expense) / latest.Expense * 100
		result.ExpenseAlert = math.Abs(result.ExpenseChangePercent) >= 15
	}
	return result, true
}

// olsForecast fits y = intercept + slope*x over x = 0..n-1 and evaluates the
// next steps positions. With fewer than three points it repeats the last
// known value, or zero with no data at all. Values are floored at zero and
// rounded to the nearest whole unit.
func olsForecast(series []float64, steps int) []float64 {
	out := make([]float64, steps)
	n := len(series)
	if n < 3 {
		var last float64
		if n > 0 {
			last = series[n-1]
		}
		for i := range out {
			out[i] = math.Max(0, math.Round(last))
		}
		return out
	}

	var sumX, sumY, sumXY, sumXX float64
	for i, y := range series {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}
	fn := float64(n)
	slope := (fn*sumXY - sumX*sumY) / (fn*sumXX - sumX*sumX)
	intercept := (sumY - slope*sumX) / fn

	for i := range out {
		predicted := intercept + slope*float64(n+i)
		out[i] = math.Max(0, math.Round(predicted))
	}
	return out
}
