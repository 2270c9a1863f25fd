package nn_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/gradtape/autodiff"
	"github.com/born-ml/gradtape/backend/cpu"
	"github.com/born-ml/gradtape/nn"
	"github.com/born-ml/gradtape/optim"
)

func TestPublicAPI_TrainSaveLoad(t *testing.T) {
	net := nn.New(2, nn.CategoricalCrossEntropy, nn.WithInitializer(nn.Xavier(nil))).
		AddLayer(nn.LayerSpec{Neurons: 4, UseBias: true, NeuronActivation: nn.LeakyReLU(0.01)}).
		AddLayer(nn.LayerSpec{Neurons: 2, LayerActivation: nn.SoftMax})

	examples := []nn.Example{
		nn.Labeled{Features: []float32{1, 0}, Label: 0, Classes: 2},
		nn.Labeled{Features: []float32{0, 1}, Label: 1, Classes: 2},
	}

	backend := autodiff.New(cpu.New())
	_, ok := autodiff.AsDifferentiable(backend)
	require.True(t, ok)
	_, ok = autodiff.AsDifferentiable(cpu.New())
	require.False(t, ok)

	opt := optim.NewSGD(net, optim.SGDConfig{LR: 0.5})
	for range 200 {
		for _, ex := range examples {
			res, err := net.Gradient(backend, ex, nil)
			require.NoError(t, err)
			backend.Reset()
			require.NoError(t, opt.Step(res.Gradient))
		}
	}

	for _, ex := range examples {
		got, err := net.Predict(ex)
		require.NoError(t, err)
		assert.Equal(t, ex.Category(), got)
	}

	path := filepath.Join(t.TempDir(), "model.gtp")
	require.NoError(t, nn.Save(path, &nn.Checkpoint{Network: net}))
	ck, err := nn.Load(path)
	require.NoError(t, err)
	assert.Equal(t, net.Params(), ck.Network.Params())

	pass, err := ck.Network.Forward(cpu.New(), examples[1], nn.Predict, nil)
	require.NoError(t, err)
	assert.Len(t, pass.Output, 2)
}
