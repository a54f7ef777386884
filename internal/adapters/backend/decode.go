package backend

import (
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/okian/jury/internal/domain/model"
)

// Backend responses are not uniform across deployments: lists come bare or
// wrapped, ids come as _id or id. Everything is normalized here.

func listAt(root gjson.Result, paths ...string) (gjson.Result, bool) {
	if root.IsArray() {
		return root, true
	}
	for _, p := range paths {
		if v := root.Get(p); v.IsArray() {
			return v, true
		}
	}
	return gjson.Result{}, false
}

func parseRoot(body []byte) (gjson.Result, error) {
	if !gjson.ValidBytes(body) {
		return gjson.Result{}, fmt.Errorf("%w: invalid json", ErrDecode)
	}
	return gjson.ParseBytes(body), nil
}

func decodeCriteria(body []byte) ([]model.Criterion, error) {
	root, err := parseRoot(body)
	if err != nil {
		return nil, err
	}
	list, ok := listAt(root, "evaluationCriteria", "criteria", "data.evaluationCriteria", "data.criteria")
	if !ok {
		return nil, fmt.Errorf("%w: no criteria list", ErrDecode)
	}
	out := make([]model.Criterion, 0, len(list.Array()))
	list.ForEach(func(_, v gjson.Result) bool {
		c := model.Criterion{
			Name:   v.Get("name").String(),
			Weight: v.Get("weight").Float(),
		}
		if d := v.Get("description"); d.Type == gjson.String {
			s := d.String()
			c.Description = &s
		}
		out = append(out, c)
		return true
	})
	return out, nil
}

func decodeApplications(body []byte) ([]model.ApplicationEvaluationState, error) {
	root, err := parseRoot(body)
	if err != nil {
		return nil, err
	}
	list, ok := listAt(root, "applications", "data", "data.applications")
	if !ok {
		return nil, fmt.Errorf("%w: no applications list", ErrDecode)
	}
	out := make([]model.ApplicationEvaluationState, 0, len(list.Array()))
	var decodeErr error
	list.ForEach(func(_, v gjson.Result) bool {
		app, err := decodeApplication(v)
		if err != nil {
			decodeErr = err
			return false
		}
		out = append(out, app)
		return true
	})
	if decodeErr != nil {
		return nil, decodeErr
	}
	return out, nil
}

func decodeSingleApplication(body []byte) (model.ApplicationEvaluationState, error) {
	root, err := parseRoot(body)
	if err != nil {
		return model.ApplicationEvaluationState{}, err
	}
	if !root.IsObject() {
		return model.ApplicationEvaluationState{}, fmt.Errorf("%w: application is not an object", ErrDecode)
	}
	if applicationID(root) == "" {
		for _, p := range []string{"data", "application"} {
			if v := root.Get(p); v.IsObject() {
				root = v
				break
			}
		}
	}
	return decodeApplication(root)
}

func applicationID(v gjson.Result) string {
	if id := v.Get("_id").String(); id != "" {
		return id
	}
	return v.Get("id").String()
}

func decodeApplication(v gjson.Result) (model.ApplicationEvaluationState, error) {
	app := model.ApplicationEvaluationState{
		ApplicationID:      applicationID(v),
		JudgeComment:       v.Get("judgeComment").String(),
		PerCriterionScores: model.Scores{},
	}
	if app.ApplicationID == "" {
		return app, fmt.Errorf("%w: application without id", ErrDecode)
	}
	if fs := v.Get("finalScore"); fs.Type == gjson.Number {
		f := fs.Float()
		app.FinalScore = &f
	}
	v.Get("evaluationScores").ForEach(func(k, s gjson.Result) bool {
		if s.Type == gjson.Number {
			app.PerCriterionScores[k.String()] = clampScore(s.Int())
		}
		return true
	})
	if r := v.Get("response"); r.IsObject() {
		if m, ok := r.Value().(map[string]interface{}); ok {
			app.Response = m
		}
	}
	return app, nil
}

func clampScore(v int64) int {
	switch {
	case v < model.MinScore:
		return model.MinScore
	case v > model.MaxScore:
		return model.MaxScore
	}
	return int(v)
}
