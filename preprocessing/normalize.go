package preprocessing

import (
	"github.com/RyanBlaney/napkit/algorithms/common"
	"github.com/RyanBlaney/napkit/data"
	"github.com/RyanBlaney/napkit/logging"
	"gonum.org/v1/gonum/mat"
)

// Normalize scales every channel of every trial independently with method.
// The returned arrays are new; the inputs are unchanged.
func Normalize(d *data.Data, field data.FieldSelector, method common.NormalizationType) ([]*mat.Dense, error) {
	logger := logging.WithFields(logging.Fields{
		"component": "preprocessing",
		"function":  "Normalize",
		"field":     field.String(),
		"method":    method.String(),
	})

	arrays, err := data.ResolveField(d, field)
	if err != nil {
		logger.Error(err, "Failed to resolve normalization input")
		return nil, err
	}

	norm := common.NewNormalizer(method)
	out := make([]*mat.Dense, len(arrays))
	for i, x := range arrays {
		r, c := x.Dims()
		y := mat.NewDense(r, c, nil)
		col := make([]float64, r)
		for j := range c {
			mat.Col(col, j, x)
			y.SetCol(j, norm.Normalize(col))
		}
		out[i] = y
		logger.Debug("Normalized trial", logging.Fields{"trial": i, "samples": r, "channels": c})
	}
	return out, nil
}
