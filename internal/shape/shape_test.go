package shape

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/phobologic/nodedocs/internal/model"
)

func TestInfer(t *testing.T) {
	t.Parallel()

	tests := []struct {
		line string
		want model.CodeShape
	}{
		// declarations
		{"function add(a, b) {", model.CodeShape{Name: "add", Kind: model.Function}},
		{"export async function load(url) {", model.CodeShape{Name: "load", Kind: model.Function}},
		{"function* ids() {", model.CodeShape{Name: "ids", Kind: model.Function}},
		{"var add = function (a, b) {", model.CodeShape{Name: "add", Kind: model.Function}},
		{"const add = (a, b) => a + b;", model.CodeShape{Name: "add", Kind: model.Function}},
		{"let twice = async x => x * 2;", model.CodeShape{Name: "twice", Kind: model.Function}},
		{"export class Circle extends Shape {", model.CodeShape{Name: "Circle", Kind: model.Function}},
		{"var PI = 3.14;", model.CodeShape{Name: "PI", Kind: model.Member}},
		{"let counter;", model.CodeShape{Name: "counter", Kind: model.Member}},

		// prototype and receivers
		{"Circle.prototype.area = function () {", model.CodeShape{Name: "area", Kind: model.Function, Owner: "Circle", Instance: true}},
		{"Circle.prototype.radius = 1;", model.CodeShape{Name: "radius", Kind: model.Member, Owner: "Circle", Instance: true}},
		{"this.area = function () {", model.CodeShape{Name: "area", Kind: model.Function, Instance: true}},
		{"this.radius = r;", model.CodeShape{Name: "radius", Kind: model.Member, Instance: true}},
		{"vjs.Player.prototype.play = function () {", model.CodeShape{Name: "play", Kind: model.Function, Owner: "vjs.Player", Instance: true}},
		{"vjs.Player.prototype.volume = 1;", model.CodeShape{Name: "volume", Kind: model.Member, Owner: "vjs.Player", Instance: true}},
		{"Circle.create = function (r) {", model.CodeShape{Name: "create", Kind: model.Function, Owner: "Circle"}},
		{"vjs.Player.prototype = {", model.CodeShape{Name: "prototype", Kind: model.Member, Owner: "vjs.Player"}},
		{"Circle.UNIT = new Circle(1);", model.CodeShape{Name: "UNIT", Kind: model.Member, Owner: "Circle"}},

		// object literals and classes
		{"area: function () {", model.CodeShape{Name: "area", Kind: model.Function}},
		{"'on-ready': function () {", model.CodeShape{Name: "on-ready", Kind: model.Function}},
		{"area(scale) {", model.CodeShape{Name: "area", Kind: model.Function}},
		{"static async create(opts) {", model.CodeShape{Name: "create", Kind: model.Function}},
		{"public area(): number {", model.CodeShape{Name: "area", Kind: model.Function}},
		{"load(url: string): Promise<Map<string, number>> {", model.CodeShape{Name: "load", Kind: model.Function}},
		{"radius: 1,", model.CodeShape{Name: "radius", Kind: model.Member}},
		{"private label?: string;", model.CodeShape{Name: "label", Kind: model.Member}},

		// bare assignment
		{"area = function () {", model.CodeShape{Name: "area", Kind: model.Function}},
		{"radius = 2;", model.CodeShape{Name: "radius", Kind: model.Member}},
		{"static count = 0;", model.CodeShape{Name: "count", Kind: model.Member}},
		{"private readonly max = 10;", model.CodeShape{Name: "max", Kind: model.Member}},
		{"static create = function () {", model.CodeShape{Name: "create", Kind: model.Function}},

		// no shape
		{"", model.CodeShape{}},
		{"if (ready) {", model.CodeShape{}},
		{"return total;", model.CodeShape{}},
		{"a == b", model.CodeShape{}},
		{"})();", model.CodeShape{}},
		{"define(['jquery'], function ($) {", model.CodeShape{}},
		{"describe('player', function () {", model.CodeShape{}},
		{"foo(bar).then(function () {", model.CodeShape{}},
		{"it('plays', () => {", model.CodeShape{}},
		{"init(function () {", model.CodeShape{}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.line, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Infer(tt.line, "lib/shapes.js"))
		})
	}
}

func TestInferTrimsLine(t *testing.T) {
	t.Parallel()

	got := Infer("\t  function add(a, b) {  ", "lib/math.js")
	assert.Equal(t, model.CodeShape{Name: "add", Kind: model.Function}, got)
}

func TestInferModuleExports(t *testing.T) {
	t.Parallel()

	tests := []struct {
		line string
		file string
		want model.CodeShape
	}{
		{"exports.add = function (a, b) {", "lib/math.js", model.CodeShape{Name: "add", Kind: model.Function, Owner: "math"}},
		{"module.exports.parse = function (s) {", "lib/services/videos.js", model.CodeShape{Name: "parse", Kind: model.Function, Owner: "services.videos"}},
		{"exports.VERSION = '1.0';", "lib/util/version.js", model.CodeShape{Name: "VERSION", Kind: model.Member, Owner: "util.version"}},
		{"exports.add = function () {", "math.js", model.CodeShape{Name: "add", Kind: model.Function}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.line, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Infer(tt.line, tt.file))
		})
	}
}
